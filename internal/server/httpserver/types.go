package httpserver

import (
	"log/slog"
	"net"
	"net/http"

	"git.home.luguber.info/inful/siteforge/internal/hooks"
	"git.home.luguber.info/inful/siteforge/internal/metrics"
)

// LiveReloadHub supports the live reload SSE endpoint.
type LiveReloadHub interface {
	http.Handler
	Shutdown()
}

// Options configures the dev server.
type Options struct {
	// OutputRoot is the absolute directory being served.
	OutputRoot string
	// Listener must already be bound; see portscan.Listen.
	Listener net.Listener
	Hooks    hooks.HookSet
	// LiveReload enables the SSE endpoints and script injection when non-nil.
	LiveReload LiveReloadHub
	Recorder   metrics.Recorder
	Logger     *slog.Logger
}
