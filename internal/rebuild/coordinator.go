// Package rebuild serialises site builds and coalesces overlapping rebuild
// requests into at most one pending rerun.
package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/metrics"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// Builder runs one full build. superseded reports whether another build has
// been requested since this one started.
type Builder interface {
	Build(ctx context.Context, superseded func() bool) site.Result
}

// Observer is notified after every completed build, successful or not.
type Observer interface {
	BuildCompleted(ctx context.Context, res site.Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, res site.Result)

func (f ObserverFunc) BuildCompleted(ctx context.Context, res site.Result) { f(ctx, res) }

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObservers appends build observers, called in order.
func WithObservers(obs ...Observer) Option {
	return func(c *Coordinator) {
		for _, o := range obs {
			if o != nil {
				c.observers = append(c.observers, o)
			}
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithIDGenerator replaces the build id source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Coordinator) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// Coordinator owns the build state machine:
//
//	Idle                   --request--> Building (build starts)
//	Building               --request--> Building-with-pending
//	Building-with-pending  --request--> unchanged
//	Building               --done-----> Idle
//	Building-with-pending  --done-----> Building (rerun starts)
//
// At most one build runs at a time.
type Coordinator struct {
	builder   Builder
	observers []Observer
	recorder  metrics.Recorder
	newID     func() string
	ctx       context.Context

	mu           sync.Mutex
	inProgress   bool
	pendingRerun bool
	idle         chan struct{}
}

// New returns an idle coordinator. Builds run detached from ctx's
// cancellation; ctx only carries values.
func New(ctx context.Context, builder Builder, opts ...Option) *Coordinator {
	idle := make(chan struct{})
	close(idle)
	c := &Coordinator{
		builder:  builder,
		recorder: metrics.NoopRecorder{},
		newID:    uuid.NewString,
		ctx:      context.WithoutCancel(ctx),
		idle:     idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestBuild asks for a build and returns immediately. It is safe for
// concurrent use by any number of trigger sources.
func (c *Coordinator) RequestBuild() {
	c.mu.Lock()
	switch {
	case !c.inProgress:
		c.inProgress = true
		c.pendingRerun = false
		c.idle = make(chan struct{})
		c.mu.Unlock()
		c.recorder.IncTriggerRequest(metrics.TriggerStarted)
		go c.run()
		return
	case !c.pendingRerun:
		c.pendingRerun = true
		c.mu.Unlock()
		c.recorder.IncTriggerRequest(metrics.TriggerCoalesced)
		slog.Debug("Build in progress, rerun scheduled")
	default:
		c.mu.Unlock()
		c.recorder.IncTriggerRequest(metrics.TriggerDropped)
	}
}

// Wait blocks until the coordinator is idle or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	idle := c.idle
	c.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Building reports whether a build is in flight.
func (c *Coordinator) Building() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inProgress
}

func (c *Coordinator) superseded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingRerun
}

func (c *Coordinator) run() {
	for {
		id := c.newID()
		res := c.build(id)
		c.report(res)

		c.mu.Lock()
		if c.pendingRerun {
			c.pendingRerun = false
			c.mu.Unlock()
			continue
		}
		c.inProgress = false
		close(c.idle)
		c.mu.Unlock()
		return
	}
}

// build runs one build. A panic is reported as a failed build so the
// coordinator keeps serving requests.
func (c *Coordinator) build(id string) (res site.Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = site.Result{
				Start: start,
				End:   time.Now(),
				Err: ferrors.InternalError("build panicked").
					WithContext("panic", fmt.Sprint(r)).Build(),
			}
		}
		res.BuildID = id
	}()
	return c.builder.Build(site.WithBuildID(c.ctx, id), c.superseded)
}

func (c *Coordinator) report(res site.Result) {
	c.recorder.ObserveBuildDuration(res.Duration())
	c.recorder.AddEntries(site.KindDir.String(), res.Dirs)
	c.recorder.AddEntries(site.KindDocument.String(), res.Documents)
	c.recorder.AddEntries(site.KindFile.String(), res.Files)

	attrs := []any{
		logfields.BuildID(res.BuildID),
		logfields.Duration(res.Duration()),
		logfields.Count(res.Dirs + res.Documents + res.Files),
	}
	switch {
	case res.Err != nil:
		c.recorder.IncBuildOutcome(metrics.BuildFailed)
		level := slog.LevelError
		if ce, ok := ferrors.AsClassified(res.Err); ok && ce.Severity() == ferrors.SeverityWarning {
			level = slog.LevelWarn
		}
		slog.Log(c.ctx, level, "Build failed", append(attrs, logfields.Error(res.Err))...)
	case res.Abandoned:
		c.recorder.IncBuildOutcome(metrics.BuildAbandoned)
		slog.Debug("Build abandoned for rerun", attrs...)
	default:
		c.recorder.IncBuildOutcome(metrics.BuildSuccess)
		slog.Info("Build complete", attrs...)
	}

	for _, o := range c.observers {
		o.BuildCompleted(c.ctx, res)
	}
}
