package temporal

import "github.com/google/uuid"

// Snapshot is the mutable aggregate value for one snapshot identity.
//
// S is expected to be a pointer type so that events can mutate the value in
// place. Clone must produce a deep copy: interior collections are permitted,
// but a clone and its source must never share mutable storage. Cloning should
// be cheap; the engine clones a snapshot once per forked checkpoint and once
// per query.
type Snapshot[S any] interface {
	// ID returns the snapshot identity this value belongs to.
	ID() uuid.UUID

	// Time returns the logical time of the last event applied to this value.
	Time() int64

	// SetTime stamps the value with a new logical time.
	SetTime(t int64)

	// Clone returns an independent deep copy.
	Clone() S

	// Equal reports value equality.
	Equal(other S) bool

	// ConservativeSize returns an upper-bound estimate of the value's size
	// in bytes, used for memory-budget accounting.
	ConservativeSize() int
}

// Event is an immutable record targeting one snapshot identity.
//
// ApplyTo must be deterministic and free of external side effects: replaying
// the same events in the same order must produce identical state.
type Event[S any] interface {
	// ID returns the globally unique event identity. Two events are the same
	// event iff their IDs are equal.
	ID() uuid.UUID

	// Time returns the signed logical time of the event.
	Time() int64

	// SnapshotID returns the identity of the snapshot this event targets.
	SnapshotID() uuid.UUID

	// ConservativeSize returns an upper-bound estimate of the event's own
	// size in bytes.
	ConservativeSize() int

	// ApplySizeDelta returns a conservative estimate of how many bytes
	// applying this event adds to (or removes from) a snapshot, without
	// applying it.
	ApplySizeDelta() int

	// ApplyTo mutates state and returns the actual size delta in bytes.
	ApplyTo(state S) int
}
