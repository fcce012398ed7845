package temporal

import (
	"bytes"
	"math"

	"github.com/google/uuid"
)

// Key is the composite ordering key used for events and checkpoint states:
// primary by logical time, tie-broken by 128-bit identity. The key is total,
// tolerates clock collisions, and is stable across processes because both
// fields are caller-supplied.
type Key struct {
	Time int64
	ID   uuid.UUID
}

// Compare returns -1, 0, or 1 ordering k against other lexicographically by
// (Time, ID).
func (k Key) Compare(other Key) int {
	if k.Time != other.Time {
		if k.Time < other.Time {
			return -1
		}
		return 1
	}
	return bytes.Compare(k.ID[:], other.ID[:])
}

// Less reports whether k orders strictly before other.
func (k Key) Less(other Key) bool { return k.Compare(other) < 0 }

// EventKey returns the ordering key of an event. The extra type parameter
// keeps the function assignable to the keyOf argument of the index-search
// helpers for any concrete event type.
func EventKey[S any, E Event[S]](e E) Key {
	return Key{Time: e.Time(), ID: e.ID()}
}

// SnapshotKey returns the ordering key of a snapshot.
func SnapshotKey[S Snapshot[S]](s S) Key {
	return Key{Time: s.Time(), ID: s.ID()}
}

// minKey orders at or before every other key.
var minKey = Key{Time: math.MinInt64}

// eventEndIndex returns the index one past the last event with Time <= t,
// so events[:end] is exactly the prefix at or before t.
func eventEndIndex[S any, E Event[S]](events []E, t int64) int {
	if t == math.MaxInt64 {
		return len(events)
	}
	// (t+1, zero id) is an exclusive upper bound covering every id at time t.
	_, end := IndexesBetween(events, minKey, Key{Time: t + 1}, EventKey[S, E])
	return end
}
