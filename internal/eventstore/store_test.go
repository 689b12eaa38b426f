package eventstore

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

const testBuildID = "build-123"

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store, err := NewSQLiteStore(MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	payload := []byte(`{"test": "data"}`)

	if err := store.Append(ctx, testBuildID, "TestEvent", payload, map[string]string{"key": "value"}); err != nil {
		t.Fatalf("failed to append event: %v", err)
	}

	events, err := store.GetByBuildID(ctx, testBuildID)
	if err != nil {
		t.Fatalf("failed to get events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.BuildID() != testBuildID {
		t.Errorf("expected build_id %s, got %s", testBuildID, event.BuildID())
	}
	if event.Type() != "TestEvent" {
		t.Errorf("expected event_type TestEvent, got %s", event.Type())
	}
	if !bytes.Equal(event.Payload(), payload) {
		t.Errorf("expected payload %s, got %s", payload, event.Payload())
	}
	if event.Metadata()["key"] != "value" {
		t.Errorf("expected metadata key=value, got %v", event.Metadata())
	}
	if event.ID() == 0 {
		t.Error("expected an assigned id")
	}
}

func TestEventStoreGetRange(t *testing.T) {
	store, err := NewSQLiteStore(MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	before := time.Now().Add(-time.Second)
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, id, EventBuildCompleted, []byte(`{}`), nil); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}

	events, err := store.GetRange(ctx, before, time.Now().Add(time.Second))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].BuildID() != "a" || events[2].BuildID() != "c" {
		t.Errorf("expected oldest first, got %s..%s", events[0].BuildID(), events[2].BuildID())
	}

	events, err = store.GetRange(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("expected no events in a future range, got %d", len(events))
	}
}

func TestEventStoreLatest(t *testing.T) {
	store, err := NewSQLiteStore(MemoryDSN)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx := t.Context()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.Append(ctx, id, EventBuildCompleted, []byte(`{}`), nil); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := store.Append(ctx, "x", "Other", []byte(`{}`), nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := store.Latest(ctx, EventBuildCompleted, 2)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(events) != 2 || events[0].BuildID() != "c" || events[1].BuildID() != "b" {
		t.Fatalf("expected [c b], got %d events", len(events))
	}

	events, err = store.Latest(ctx, EventBuildCompleted, 0)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected nothing for limit 0, got %d (%v)", len(events), err)
	}
}

func TestEventStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	if err := store.Append(t.Context(), testBuildID, EventBuildCompleted, []byte(`{}`), nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	store, err = NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = store.Close() }()
	events, err := store.GetByBuildID(t.Context(), testBuildID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after reopen, got %d", len(events))
	}
}
