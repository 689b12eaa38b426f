package eventstore

import (
	"context"
	"time"
)

// BuildSummary is one row of build history.
type BuildSummary struct {
	BuildID     string        `json:"build_id"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration"`
	Dirs        int           `json:"dirs"`
	Documents   int           `json:"documents"`
	Files       int           `json:"files"`
	WasPending  bool          `json:"was_pending"`
	Error       string        `json:"error,omitempty"`
	Input       string        `json:"input,omitempty"`
	Output      string        `json:"output,omitempty"`
}

// BuildHistoryProjection reads build summaries from a Store.
type BuildHistoryProjection struct {
	store   Store
	maxSize int
}

// NewBuildHistoryProjection caps Recent at maxHistorySize (default 100).
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{store: store, maxSize: maxHistorySize}
}

// Recent returns up to limit builds, newest first. limit <= 0 means the cap.
// Events whose payload cannot be decoded are skipped.
func (p *BuildHistoryProjection) Recent(ctx context.Context, limit int) ([]BuildSummary, error) {
	if limit <= 0 || limit > p.maxSize {
		limit = p.maxSize
	}
	events, err := p.store.Latest(ctx, EventBuildCompleted, limit)
	if err != nil {
		return nil, err
	}
	out := make([]BuildSummary, 0, len(events))
	for _, e := range events {
		s, err := summarize(e)
		if err != nil {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Get returns the summary of one build.
func (p *BuildHistoryProjection) Get(ctx context.Context, buildID string) (BuildSummary, bool, error) {
	events, err := p.store.GetByBuildID(ctx, buildID)
	if err != nil {
		return BuildSummary{}, false, err
	}
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type() != EventBuildCompleted {
			continue
		}
		s, err := summarize(events[i])
		if err != nil {
			return BuildSummary{}, false, err
		}
		return s, true, nil
	}
	return BuildSummary{}, false, nil
}

func summarize(e Event) (BuildSummary, error) {
	pl, err := DecodeBuildCompleted(e)
	if err != nil {
		return BuildSummary{}, err
	}
	md := e.Metadata()
	return BuildSummary{
		BuildID:     e.BuildID(),
		Status:      pl.Outcome,
		StartedAt:   pl.StartedAt,
		CompletedAt: pl.EndedAt,
		Duration:    time.Duration(pl.DurationMS) * time.Millisecond,
		Dirs:        pl.Dirs,
		Documents:   pl.Documents,
		Files:       pl.Files,
		WasPending:  pl.WasPending,
		Error:       pl.Error,
		Input:       md[MetaInput],
		Output:      md[MetaOutput],
	}, nil
}
