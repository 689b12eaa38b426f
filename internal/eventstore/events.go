package eventstore

import (
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// EventBuildCompleted is appended once per finished build.
const EventBuildCompleted = "BuildCompleted"

// BuildCompletedPayload is the JSON body of an EventBuildCompleted event.
type BuildCompletedPayload struct {
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	DurationMS int64     `json:"duration_ms"`
	Dirs       int       `json:"dirs"`
	Documents  int       `json:"documents"`
	Files      int       `json:"files"`
	WasPending bool      `json:"was_pending"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
}

// NewBuildCompletedPayload summarises res.
func NewBuildCompletedPayload(res site.Result) BuildCompletedPayload {
	p := BuildCompletedPayload{
		Outcome:    res.Outcome(),
		StartedAt:  res.Start.UTC(),
		EndedAt:    res.End.UTC(),
		DurationMS: res.Duration().Milliseconds(),
		Dirs:       res.Dirs,
		Documents:  res.Documents,
		Files:      res.Files,
		WasPending: res.WasPending,
	}
	if res.Err != nil {
		p.Error = res.Err.Error()
		p.ErrorKind = string(ferrors.GetCategory(res.Err))
	}
	return p
}

// Marshal encodes p for storage.
func (p BuildCompletedPayload) Marshal(buildID string) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, ferrors.InternalError("failed to marshal BuildCompleted payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return data, nil
}

// DecodeBuildCompleted reads the payload of an EventBuildCompleted event.
func DecodeBuildCompleted(e Event) (BuildCompletedPayload, error) {
	var p BuildCompletedPayload
	if err := json.Unmarshal(e.Payload(), &p); err != nil {
		return p, wrap(ErrUnmarshalPayloadFailed, err)
	}
	return p, nil
}
