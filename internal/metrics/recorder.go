package metrics

import "time"

// BuildOutcomeLabel enumerates final build states.
type BuildOutcomeLabel string

const (
	BuildSuccess   BuildOutcomeLabel = "success"
	BuildFailed    BuildOutcomeLabel = "failed"
	BuildAbandoned BuildOutcomeLabel = "abandoned"
)

// TriggerResult describes what a rebuild request did to the coordinator.
type TriggerResult string

const (
	TriggerStarted   TriggerResult = "started"   // idle, build started
	TriggerCoalesced TriggerResult = "coalesced" // building, rerun scheduled
	TriggerDropped   TriggerResult = "dropped"   // rerun already pending
)

// Recorder defines observability hooks for builds and the dev server.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncTriggerRequest(result TriggerResult)
	AddEntries(kind string, n int)
	IncHTTPResponse(status int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)  {}
func (NoopRecorder) IncTriggerRequest(TriggerResult)    {}
func (NoopRecorder) AddEntries(string, int)             {}
func (NoopRecorder) IncHTTPResponse(int)                {}
