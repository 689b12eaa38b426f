// Package responses defines the JSON bodies served by the admin listener.
package responses

import "time"

// BuildStatusResponse describes the most recent completed build.
type BuildStatusResponse struct {
	Status    string     `json:"status"` // idle|building
	Builds    int        `json:"builds"`
	LastBuild *BuildInfo `json:"last_build,omitempty"`
	OutputDir string     `json:"output_dir"`
	Timestamp time.Time  `json:"timestamp"`
}

// BuildInfo summarises one build.
type BuildInfo struct {
	ID         string    `json:"id"`
	Outcome    string    `json:"outcome"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS float64   `json:"duration_ms"`
	Dirs       int       `json:"dirs"`
	Documents  int       `json:"documents"`
	Files      int       `json:"files"`
	Error      string    `json:"error,omitempty"`
}

// TriggerResponse acknowledges a rebuild request.
type TriggerResponse struct {
	Status string `json:"status"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
