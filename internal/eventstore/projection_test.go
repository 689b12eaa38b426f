package eventstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/siteforge/internal/foundation/errors"
	"git.home.luguber.info/inful/siteforge/internal/site"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecorderAndProjectionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	rec := NewRecorder(store, "/in", "/out")
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	ok := site.Result{BuildID: "b1", Start: start, End: start.Add(1500 * time.Millisecond), Dirs: 2, Documents: 3, Files: 4}
	failed := site.Result{
		BuildID: "b2", Start: start, End: start.Add(time.Second),
		Err: ferrors.RenderError("render failed").Build(), WasPending: true,
	}
	require.NoError(t, rec.Record(t.Context(), ok))
	rec.BuildCompleted(t.Context(), failed)

	hist := NewBuildHistoryProjection(store, 10)
	recent, err := hist.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "b2", recent[0].BuildID)
	assert.Equal(t, site.OutcomeFailed, recent[0].Status)
	assert.True(t, recent[0].WasPending)
	assert.Contains(t, recent[0].Error, "render failed")

	got := recent[1]
	assert.Equal(t, "b1", got.BuildID)
	assert.Equal(t, site.OutcomeSuccess, got.Status)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, start, got.StartedAt)
	assert.Equal(t, 2, got.Dirs)
	assert.Equal(t, 3, got.Documents)
	assert.Equal(t, 4, got.Files)
	assert.Equal(t, "/in", got.Input)
	assert.Equal(t, "/out", got.Output)
}

func TestProjectionRecentHonoursCap(t *testing.T) {
	store := newTestStore(t)
	rec := NewRecorder(store, "", "")
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, rec.Record(t.Context(), site.Result{BuildID: id}))
	}

	recent, err := NewBuildHistoryProjection(store, 3).Recent(t.Context(), 50)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].BuildID)
}

func TestProjectionSkipsCorruptPayloads(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Append(t.Context(), "bad", EventBuildCompleted, []byte("not json"), nil))
	require.NoError(t, NewRecorder(store, "", "").Record(t.Context(), site.Result{BuildID: "good"}))

	hist := NewBuildHistoryProjection(store, 0)
	recent, err := hist.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "good", recent[0].BuildID)

	_, _, err = hist.Get(t.Context(), "bad")
	assert.True(t, errors.Is(err, ErrUnmarshalPayloadFailed))
}

func TestProjectionGet(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, NewRecorder(store, "", "").Record(t.Context(), site.Result{BuildID: "x", Abandoned: true}))

	hist := NewBuildHistoryProjection(store, 0)
	s, found, err := hist.Get(t.Context(), "x")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, site.OutcomeAbandoned, s.Status)

	_, found, err = hist.Get(t.Context(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
}
