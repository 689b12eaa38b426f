package eventstore

import "time"

// Event is one persisted record in the build history.
type Event interface {
	ID() int64
	BuildID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte
	Metadata() map[string]string
}

// record is the row form returned by SQLiteStore.
type record struct {
	seq     int64
	build   string
	kind    string
	at      time.Time
	payload []byte
	meta    map[string]string
}

func (r *record) ID() int64                   { return r.seq }
func (r *record) BuildID() string             { return r.build }
func (r *record) Type() string                { return r.kind }
func (r *record) Timestamp() time.Time        { return r.at }
func (r *record) Payload() []byte             { return r.payload }
func (r *record) Metadata() map[string]string { return r.meta }
