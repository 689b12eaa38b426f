package render

import (
	"fmt"
	"sort"
)

// Settings toggles goldmark features. The zero value is not the default; use
// DefaultSettings.
type Settings struct {
	GFM         bool
	Typographer bool
	Footnotes   bool
	HardWraps   bool
	Unsafe      bool
	HeadingIDs  bool
}

const (
	keyGFM         = "gfm"
	keyTypographer = "typographer"
	keyFootnotes   = "footnotes"
	keyHardWraps   = "hard_wraps"
	keyUnsafe      = "unsafe"
	keyHeadingIDs  = "heading_ids"
)

// DefaultSettings enables GFM, footnotes, raw HTML passthrough and heading ids.
func DefaultSettings() Settings {
	return Settings{
		GFM:        true,
		Footnotes:  true,
		Unsafe:     true,
		HeadingIDs: true,
	}
}

// Map exposes the settings to hook scripts.
func (s Settings) Map() map[string]any {
	return map[string]any{
		keyGFM:         s.GFM,
		keyTypographer: s.Typographer,
		keyFootnotes:   s.Footnotes,
		keyHardWraps:   s.HardWraps,
		keyUnsafe:      s.Unsafe,
		keyHeadingIDs:  s.HeadingIDs,
	}
}

// Apply overlays m onto s. Unknown keys are reported, as are values that are
// not booleans.
func (s Settings) Apply(m map[string]any) (Settings, error) {
	fields := map[string]*bool{
		keyGFM:         &s.GFM,
		keyTypographer: &s.Typographer,
		keyFootnotes:   &s.Footnotes,
		keyHardWraps:   &s.HardWraps,
		keyUnsafe:      &s.Unsafe,
		keyHeadingIDs:  &s.HeadingIDs,
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		dst, ok := fields[k]
		if !ok {
			return s, fmt.Errorf("unknown render setting %q", k)
		}
		b, ok := m[k].(bool)
		if !ok {
			return s, fmt.Errorf("render setting %q: expected bool, got %T", k, m[k])
		}
		*dst = b
	}
	return s, nil
}
