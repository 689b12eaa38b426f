package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	smw "git.home.luguber.info/inful/siteforge/internal/server/middleware"
	"git.home.luguber.info/inful/siteforge/internal/server/responses"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// StatusTracker remembers the last completed build for the admin API.
type StatusTracker struct {
	mu        sync.RWMutex
	outputDir string
	builds    int
	last      *site.Result
	building  func() bool
}

// NewStatusTracker returns a tracker. building may be nil.
func NewStatusTracker(outputDir string, building func() bool) *StatusTracker {
	if building == nil {
		building = func() bool { return false }
	}
	return &StatusTracker{outputDir: outputDir, building: building}
}

// BuildCompleted records res.
func (t *StatusTracker) BuildCompleted(_ context.Context, res site.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.builds++
	t.last = &res
}

// Snapshot returns the current status body.
func (t *StatusTracker) Snapshot() responses.BuildStatusResponse {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := responses.BuildStatusResponse{
		Status:    "idle",
		Builds:    t.builds,
		OutputDir: t.outputDir,
		Timestamp: time.Now().UTC(),
	}
	if t.building() {
		out.Status = "building"
	}
	if t.last != nil {
		info := &responses.BuildInfo{
			ID:         t.last.BuildID,
			Outcome:    t.last.Outcome(),
			StartedAt:  t.last.Start.UTC(),
			DurationMS: float64(t.last.Duration().Microseconds()) / 1000,
			Dirs:       t.last.Dirs,
			Documents:  t.last.Documents,
			Files:      t.last.Files,
		}
		if t.last.Err != nil {
			info.Error = t.last.Err.Error()
		}
		out.LastBuild = info
	}
	return out
}

// AdminOptions configures the admin listener.
type AdminOptions struct {
	Listener net.Listener
	Metrics  http.Handler
	Status   *StatusTracker
	Trigger  func()
	Logger   *slog.Logger
}

// AdminServer serves metrics, health and build control endpoints.
type AdminServer struct {
	srv  *http.Server
	done chan struct{}
	once sync.Once
	err  error
}

// NewAdminHandler builds the admin routes.
func NewAdminHandler(opts AdminOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, responses.HealthResponse{Status: "ok"})
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	if opts.Status != nil {
		mux.HandleFunc("GET /api/build/status", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, opts.Status.Snapshot())
		})
	}
	if opts.Trigger != nil {
		mux.HandleFunc("POST /api/build/trigger", func(w http.ResponseWriter, _ *http.Request) {
			opts.Trigger()
			writeJSON(w, http.StatusAccepted, responses.TriggerResponse{Status: "requested"})
		})
	}
	return mux
}

// StartAdmin serves the admin routes on opts.Listener.
func StartAdmin(opts AdminOptions) (*AdminServer, error) {
	if opts.Listener == nil {
		return nil, ferrors.ServerError("admin listener is required").Build()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	chain := smw.Chain(opts.Logger, nil, nil)
	a := &AdminServer{
		srv: &http.Server{
			Handler:           chain(NewAdminHandler(opts)),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		done: make(chan struct{}),
	}
	go func() {
		defer close(a.done)
		if err := a.srv.Serve(opts.Listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			opts.Logger.Error("Admin server stopped", logfields.Error(err))
		}
	}()
	opts.Logger.Info("Admin endpoints available", logfields.URL("http://"+opts.Listener.Addr().String()+"/metrics"))
	return a, nil
}

// Close shuts the admin server down. Safe to call more than once.
func (a *AdminServer) Close() error {
	a.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		a.err = a.srv.Shutdown(ctx)
		<-a.done
	})
	return a.err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
