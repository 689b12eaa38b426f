// Package eventstore persists completed builds in SQLite and projects them
// into a build history.
package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves events.
type Store interface {
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)
	// GetRange returns events with start <= timestamp <= end, oldest first.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)
	// Latest returns the newest limit events of eventType, newest first.
	Latest(ctx context.Context, eventType string, limit int) ([]Event, error)
	Close() error
}
