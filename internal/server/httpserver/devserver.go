package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/hooks"
	"git.home.luguber.info/inful/siteforge/internal/livereload"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/metrics"
	"git.home.luguber.info/inful/siteforge/internal/portscan"
	smw "git.home.luguber.info/inful/siteforge/internal/server/middleware"
)

const shutdownGrace = 3 * time.Second

// Handle controls a running dev server.
type Handle struct {
	srv   *http.Server
	port  int
	hooks hooks.HookSet
	live  LiveReloadHub

	done     chan struct{}
	serveErr error

	closeOnce sync.Once
	closeErr  error
}

// NewHandler builds the dev server's routing: live reload endpoints when
// enabled, everything else from the output tree.
func NewHandler(opts Options) http.Handler {
	files := NewFileHandler(opts.OutputRoot, opts.LiveReload != nil, opts.Logger)
	if opts.LiveReload == nil {
		return files
	}
	script := livereload.ScriptHandler()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case livereload.EventsPath:
			opts.LiveReload.ServeHTTP(w, r)
		case livereload.ScriptPath:
			script.ServeHTTP(w, r)
		default:
			files.ServeHTTP(w, r)
		}
	})
}

// Start serves opts.OutputRoot on opts.Listener and fires OnHostStart once
// the server accepts connections. A failing OnHostStart closes the server.
func Start(ctx context.Context, opts Options) (*Handle, error) {
	if opts.Listener == nil {
		return nil, ferrors.ServerError("listener is required").Build()
	}
	if opts.Hooks == nil {
		opts.Hooks = hooks.Noop
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	chain := smw.Chain(opts.Logger, ferrors.NewHTTPErrorAdapter(opts.Logger), opts.Recorder)
	h := &Handle{
		srv: &http.Server{
			Handler:           chain(NewHandler(opts)),
			ReadHeaderTimeout: 10 * time.Second,
		},
		port:  portscan.Port(opts.Listener),
		hooks: opts.Hooks,
		live:  opts.LiveReload,
		done:  make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		if err := h.srv.Serve(opts.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.serveErr = ferrors.WrapError(err, ferrors.CategoryServer, "dev server stopped").Fatal().Build()
			opts.Logger.Error("Dev server stopped", logfields.Error(err))
		}
	}()

	if err := opts.Hooks.OnHostStart(ctx, h.port); err != nil {
		_ = h.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryHook, "OnHostStart hook failed").Build()
	}
	opts.Logger.Info("Serving", logfields.URL(h.URL()), logfields.Port(h.port))
	return h, nil
}

// Port returns the bound port.
func (h *Handle) Port() int { return h.port }

// URL returns the browsable address.
func (h *Handle) URL() string { return fmt.Sprintf("http://localhost:%d/", h.port) }

// Done is closed when the server stops serving.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the error that stopped the server, if it stopped on its own.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.serveErr
	default:
		return nil
	}
}

// Close stops the server and fires OnHostEnd. Only the first call has an
// effect; later calls return the first call's result.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		if h.live != nil {
			h.live.Shutdown()
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		var errs []error
		if err := h.srv.Shutdown(ctx); err != nil {
			errs = append(errs, err, h.srv.Close())
		}
		<-h.done
		if err := h.hooks.OnHostEnd(context.Background(), h.port); err != nil {
			errs = append(errs, ferrors.WrapError(err, ferrors.CategoryHook, "OnHostEnd hook failed").Build())
		}
		h.closeErr = errors.Join(errs...)
		slog.Debug("Dev server closed", logfields.Port(h.port))
	})
	return h.closeErr
}
