package eventstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// Metadata keys stored with every build event.
const (
	MetaInput  = "input"
	MetaOutput = "output"
)

// Recorder appends every completed build to a Store. It is a build observer.
type Recorder struct {
	store  Store
	input  string
	output string
}

// NewRecorder tags events with the session's input and output roots.
func NewRecorder(store Store, input, output string) *Recorder {
	return &Recorder{store: store, input: input, output: output}
}

// BuildCompleted persists res. Storage failures are logged.
func (r *Recorder) BuildCompleted(ctx context.Context, res site.Result) {
	if err := r.Record(ctx, res); err != nil {
		slog.Warn("Build history append failed", logfields.BuildID(res.BuildID), logfields.Error(err))
	}
}

// Record persists res and reports failures.
func (r *Recorder) Record(ctx context.Context, res site.Result) error {
	payload, err := NewBuildCompletedPayload(res).Marshal(res.BuildID)
	if err != nil {
		return err
	}
	return r.store.Append(ctx, res.BuildID, EventBuildCompleted, payload, map[string]string{
		MetaInput:  r.input,
		MetaOutput: r.output,
	})
}
