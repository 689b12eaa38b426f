package notify

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/siteforge/internal/site"
)

type fakePublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestNotifier_PublishesBuildEvent(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub, "siteforge.builds", "/in", "/out")
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	n.BuildCompleted(t.Context(), site.Result{
		BuildID: "b1", Start: start, End: start.Add(250 * time.Millisecond),
		Dirs: 1, Documents: 2, Files: 3,
	})

	require.Len(t, pub.payloads, 1)
	assert.Equal(t, "siteforge.builds", pub.subjects[0])

	var ev BuildEvent
	require.NoError(t, json.Unmarshal(pub.payloads[0], &ev))
	assert.Equal(t, BuildEvent{
		BuildID: "b1", Outcome: site.OutcomeSuccess, Input: "/in", Output: "/out",
		StartedAt: start, DurationMS: 250, Dirs: 1, Documents: 2, Files: 3,
	}, ev)
}

func TestNotifier_FailedBuildCarriesError(t *testing.T) {
	n := New(nil, "s", "", "")
	ev := n.NewEvent(site.Result{BuildID: "b2", Err: errors.New("boom")})
	assert.Equal(t, site.OutcomeFailed, ev.Outcome)
	assert.Equal(t, "boom", ev.Error)
}

func TestNotifier_PublishErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("disconnected")}
	n := New(pub, "s", "", "")
	assert.NotPanics(t, func() { n.BuildCompleted(t.Context(), site.Result{BuildID: "b3"}) })
}

func TestNotifier_NilIsNoop(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() { n.BuildCompleted(t.Context(), site.Result{}) })
	assert.NotPanics(t, func() { New(nil, "s", "", "").BuildCompleted(t.Context(), site.Result{}) })
}

func TestConnect_UnreachableServer(t *testing.T) {
	_, err := Connect("nats://127.0.0.1:1")
	require.Error(t, err)
}
