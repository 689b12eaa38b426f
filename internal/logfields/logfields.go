package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyTrigger    = "trigger"
	KeyKind       = "kind"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyOutput     = "output"
	KeyHook       = "hook"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyRemoteAddr = "remote_addr"
	KeyUserAgent  = "user_agent"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr        { return slog.String(KeyBuildID, id) }
func Trigger(source string) slog.Attr    { return slog.String(KeyTrigger, source) }
func Kind(k string) slog.Attr            { return slog.String(KeyKind, k) }
func Path(p string) slog.Attr            { return slog.String(KeyPath, p) }
func File(f string) slog.Attr            { return slog.String(KeyFile, f) }
func Output(p string) slog.Attr          { return slog.String(KeyOutput, p) }
func Hook(name string) slog.Attr         { return slog.String(KeyHook, name) }
func Port(p int) slog.Attr               { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr             { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr          { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr          { return slog.Int(KeyStatus, code) }
func RemoteAddr(addr string) slog.Attr   { return slog.String(KeyRemoteAddr, addr) }
func UserAgent(ua string) slog.Attr      { return slog.String(KeyUserAgent, ua) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr { return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
