package temporal

import (
	"math"

	"github.com/google/uuid"
)

// DefaultCheckpointInterval is the default maximum number of events between
// consecutive checkpoints. Smaller intervals make out-of-order inserts
// cheaper at the cost of more materialized state.
const DefaultCheckpointInterval = 100

// History holds the ordered event log and checkpoint chain for one snapshot
// identity.
//
// A History is single-writer: it performs no internal locking and must be
// owned by exactly one goroutine at a time (the Worker provides that
// ownership). Queries never mutate the history and return independent
// clones.
type History[S Snapshot[S], E Event[S]] struct {
	snapshotID  uuid.UUID
	checkpoints []*Checkpoint[S]
	events      []E
	interval    int

	// seen holds the id of every event in the log, making the
	// first-write-wins duplicate policy hold even when a duplicate arrives
	// with a different timestamp and would sort away from the original.
	seen map[uuid.UUID]struct{}
}

// NewHistory creates a History for the given snapshot identity.
//
// newState constructs the default (empty) state and is expected to pre-bind
// the identity, so that newState().ID() == snapshotID. A checkpointInterval
// of zero or less selects DefaultCheckpointInterval. The interval is fixed
// for the lifetime of the history.
//
// The chain starts with two checkpoints: the immutable origin, whose
// EventCount is pre-saturated so the resume search forks before ever
// mutating it, and the working tail the first events attach to.
func NewHistory[S Snapshot[S], E Event[S]](snapshotID uuid.UUID, newState func() S, checkpointInterval int) *History[S, E] {
	if checkpointInterval <= 0 {
		checkpointInterval = DefaultCheckpointInterval
	}

	// The origin is pinned at the minimum time so the chain stays totally
	// ordered even when events carry negative times. Queries that land on it
	// normalize the clone back to time zero.
	origin := &Checkpoint[S]{State: newState(), NextEventIndex: 0, EventCount: checkpointInterval}
	origin.State.SetTime(math.MinInt64)
	tail := &Checkpoint[S]{State: newState(), NextEventIndex: 0, EventCount: 0}
	tail.State.SetTime(0)

	return &History[S, E]{
		snapshotID:  snapshotID,
		checkpoints: []*Checkpoint[S]{origin, tail},
		events:      nil,
		interval:    checkpointInterval,
		seen:        make(map[uuid.UUID]struct{}),
	}
}

// SnapshotID returns the identity this history belongs to.
func (h *History[S, E]) SnapshotID() uuid.UUID { return h.snapshotID }

// CheckpointInterval returns the configured checkpoint interval.
func (h *History[S, E]) CheckpointInterval() int { return h.interval }

// LogLen returns the number of events in the log.
func (h *History[S, E]) LogLen() int { return len(h.events) }

// CheckpointCount returns the length of the checkpoint chain, including the
// immutable origin.
func (h *History[S, E]) CheckpointCount() int { return len(h.checkpoints) }

// ApplyEvent inserts an event into the history and returns the byte delta to
// account against a memory budget (zero in the reference engine).
//
// Events whose snapshot id does not match the history's identity are
// ignored, as are events whose id has been seen before regardless of their
// timestamp (first write wins). Out-of-order arrival is absorbed as a normal
// case: the engine re-forwards the checkpoint chain from the latest
// checkpoint still correct before the new event.
func (h *History[S, E]) ApplyEvent(event E) int {
	if event.SnapshotID() != h.snapshotID {
		return 0
	}
	if _, dup := h.seen[event.ID()]; dup {
		return 0
	}
	h.seen[event.ID()] = struct{}{}

	return applyEvent(event, &h.checkpoints, &h.events, h.interval)
}

// SnapshotAt returns a value snapshot of the state after every event at or
// before t, in key order, starting from the default state. The returned
// clone is independent of the history.
func (h *History[S, E]) SnapshotAt(t int64) S {
	// The latest checkpoint ordered strictly before (t, identity) is correct
	// as a starting point; when every checkpoint is at or after that key the
	// immutable origin is the right basis (cloning it is safe, queries never
	// mutate).
	j := 0
	if i, ok := IndexBefore(h.checkpoints, Key{Time: t, ID: h.snapshotID}, checkpointKey[S]); ok {
		j = i
	}

	state := h.checkpoints[j].State.Clone()
	if j == 0 {
		state.SetTime(0)
	}

	end := eventEndIndex[S](h.events, t)
	start := h.checkpoints[j].NextEventIndex
	if start > end {
		start = end
	}
	for _, event := range h.events[start:end] {
		event.ApplyTo(state)
		state.SetTime(event.Time())
	}
	return state
}

// Advance is a hook for pruning events and checkpoints older than t as the
// logical clock moves forward. The reference engine keeps everything and
// returns a zero byte delta.
func (h *History[S, E]) Advance(t int64) int {
	return 0
}
