package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = ":memory:"

const schema = `
PRAGMA busy_timeout = 5000;
CREATE TABLE IF NOT EXISTS build_events (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT    NOT NULL,
	kind     TEXT    NOT NULL,
	at_ms    INTEGER NOT NULL,
	payload  BLOB    NOT NULL,
	meta     TEXT
);
CREATE INDEX IF NOT EXISTS build_events_build ON build_events(build_id);
CREATE INDEX IF NOT EXISTS build_events_at ON build_events(at_ms);
CREATE INDEX IF NOT EXISTS build_events_kind ON build_events(kind, seq);
`

const selectColumns = "SELECT seq, build_id, kind, at_ms, payload, meta FROM build_events "

// SQLiteStore keeps build history in a single SQLite file.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens dsn, creating the file and its parent directories when
// missing. Pass MemoryDSN for a store that lives as long as the process.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
			return nil, wrap(ErrDatabaseOpenFailed, err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wrap(ErrDatabaseOpenFailed, err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, wrap(ErrDatabaseOpenFailed, fmt.Errorf("create schema: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

// Append stores one event stamped with the current time.
func (s *SQLiteStore) Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error {
	var meta sql.NullString
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return wrap(ErrEventAppendFailed, fmt.Errorf("encode metadata: %w", err))
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO build_events (build_id, kind, at_ms, payload, meta) VALUES (?, ?, ?, ?, ?)",
		buildID, eventType, time.Now().UnixMilli(), payload, meta,
	); err != nil {
		return wrap(ErrEventAppendFailed, err)
	}
	return nil
}

// GetByBuildID returns every event of one build in insertion order.
func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, selectColumns+"WHERE build_id = ? ORDER BY seq", buildID)
}

// GetRange returns events stamped within [start, end], oldest first.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, selectColumns+"WHERE at_ms BETWEEN ? AND ? ORDER BY seq", start.UnixMilli(), end.UnixMilli())
}

// Latest returns up to limit events of eventType, newest first.
func (s *SQLiteStore) Latest(ctx context.Context, eventType string, limit int) ([]Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	return s.query(ctx, selectColumns+"WHERE kind = ? ORDER BY seq DESC LIMIT ?", eventType, limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query build events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read build events: %w", err)
	}
	return out, nil
}

func scanRecord(rows *sql.Rows) (*record, error) {
	var (
		r    record
		atMS int64
		meta sql.NullString
	)
	if err := rows.Scan(&r.seq, &r.build, &r.kind, &atMS, &r.payload, &meta); err != nil {
		return nil, fmt.Errorf("scan build event: %w", err)
	}
	r.at = time.UnixMilli(atMS)
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &r.meta); err != nil {
			return nil, fmt.Errorf("decode metadata of event %d: %w", r.seq, err)
		}
	}
	return &r, nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
