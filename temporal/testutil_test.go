package temporal

import (
	"encoding/binary"
	"slices"

	"github.com/google/uuid"
)

// counterSnapshot is the test fixture state: a commutative counter with the
// running sum and the list of applied values.
type counterSnapshot struct {
	SnapID uuid.UUID
	At     int64
	Sum    int32
	Items  []int16
}

func (s *counterSnapshot) ID() uuid.UUID   { return s.SnapID }
func (s *counterSnapshot) Time() int64     { return s.At }
func (s *counterSnapshot) SetTime(t int64) { s.At = t }

func (s *counterSnapshot) Clone() *counterSnapshot {
	return &counterSnapshot{
		SnapID: s.SnapID,
		At:     s.At,
		Sum:    s.Sum,
		Items:  slices.Clone(s.Items),
	}
}

func (s *counterSnapshot) Equal(other *counterSnapshot) bool {
	return s.SnapID == other.SnapID &&
		s.At == other.At &&
		s.Sum == other.Sum &&
		slices.Equal(s.Items, other.Items)
}

func (s *counterSnapshot) ConservativeSize() int {
	return 16 + 8 + 4 + 2*len(s.Items)
}

// counterEvent adds its value to the counter; negative values subtract.
type counterEvent struct {
	EventID uuid.UUID
	At      int64
	Snap    uuid.UUID
	Value   int16
}

func (e counterEvent) ID() uuid.UUID         { return e.EventID }
func (e counterEvent) Time() int64           { return e.At }
func (e counterEvent) SnapshotID() uuid.UUID { return e.Snap }
func (e counterEvent) ConservativeSize() int { return 16 + 8 + 16 + 2 }
func (e counterEvent) ApplySizeDelta() int   { return 2 }

func (e counterEvent) ApplyTo(s *counterSnapshot) int {
	s.Items = append(s.Items, e.Value)
	s.Sum += int32(e.Value)
	return 2
}

// snapZero is the default snapshot identity used by most fixtures.
var snapZero = uuid.UUID{}

// testID builds a deterministic 128-bit identity from a small integer.
func testID(n uint64) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[8:], n)
	return u
}

func newCounter(id uuid.UUID) *counterSnapshot {
	return &counterSnapshot{SnapID: id}
}

// counterHistory creates a history for snapZero with the given interval.
func counterHistory(interval int) *History[*counterSnapshot, counterEvent] {
	return NewHistory[*counterSnapshot, counterEvent](snapZero, func() *counterSnapshot {
		return newCounter(snapZero)
	}, interval)
}

// evt builds a counter event for snapZero.
func evt(id uint64, t int64, v int16) counterEvent {
	return counterEvent{EventID: testID(id), At: t, Snap: snapZero, Value: v}
}

// replayCounter is the reference semantics: fold every event with time <= t
// over a fresh state in key order.
func replayCounter(events []counterEvent, t int64) *counterSnapshot {
	sorted := slices.Clone(events)
	slices.SortFunc(sorted, func(a, b counterEvent) int {
		return EventKey[*counterSnapshot](a).Compare(EventKey[*counterSnapshot](b))
	})

	s := newCounter(snapZero)
	for _, e := range sorted {
		if e.At <= t {
			e.ApplyTo(s)
			s.SetTime(e.At)
		}
	}
	return s
}
