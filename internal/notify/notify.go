// Package notify publishes completed builds to NATS so that other tools
// (editors, dashboards, test runners) can react to fresh output.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/siteforge/internal/logfields"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

// Publisher is the subset of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// BuildEvent is the JSON message published per build.
type BuildEvent struct {
	BuildID    string    `json:"build_id"`
	Outcome    string    `json:"outcome"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Dirs       int       `json:"dirs"`
	Documents  int       `json:"documents"`
	Files      int       `json:"files"`
	Error      string    `json:"error,omitempty"`
}

// Notifier is a build observer publishing BuildEvents.
type Notifier struct {
	pub     Publisher
	subject string
	input   string
	output  string
}

// New publishes on subject through pub.
func New(pub Publisher, subject, input, output string) *Notifier {
	return &Notifier{pub: pub, subject: subject, input: input, output: output}
}

// NewEvent builds the message for res.
func (n *Notifier) NewEvent(res site.Result) BuildEvent {
	ev := BuildEvent{
		BuildID:    res.BuildID,
		Outcome:    res.Outcome(),
		Input:      n.input,
		Output:     n.output,
		StartedAt:  res.Start.UTC(),
		DurationMS: res.Duration().Milliseconds(),
		Dirs:       res.Dirs,
		Documents:  res.Documents,
		Files:      res.Files,
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	return ev
}

// BuildCompleted publishes res. Publish failures are logged.
func (n *Notifier) BuildCompleted(_ context.Context, res site.Result) {
	if n == nil || n.pub == nil {
		return
	}
	data, err := json.Marshal(n.NewEvent(res))
	if err != nil {
		slog.Warn("Build notification encode failed", logfields.BuildID(res.BuildID), logfields.Error(err))
		return
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		slog.Warn("Build notification publish failed",
			logfields.BuildID(res.BuildID),
			slog.String("subject", n.subject),
			logfields.Error(err))
		return
	}
	slog.Debug("Published build notification", logfields.BuildID(res.BuildID), slog.String("subject", n.subject))
}

// Connect dials url with reconnects enabled. Close the returned connection
// with Drain or Close when done.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("siteforge"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", logfields.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	slog.Info("NATS connected", slog.String("url", conn.ConnectedUrl()))
	return conn, nil
}
