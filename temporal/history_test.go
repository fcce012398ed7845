package temporal

import (
	"math"
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

// checkInvariants verifies the structural invariants of a history: strict
// log order with unique ids, a non-decreasing checkpoint chain, every
// checkpoint state equal to the replay of its log prefix, interior
// checkpoints exactly full, and the tail covering the whole log.
func checkInvariants(t *testing.T, h *History[*counterSnapshot, counterEvent]) {
	t.Helper()

	seen := make(map[uuid.UUID]bool)
	for i, ev := range h.events {
		if seen[ev.EventID] {
			t.Fatalf("log holds id %v twice", ev.EventID)
		}
		seen[ev.EventID] = true
		if i > 0 {
			prev := EventKey[*counterSnapshot](h.events[i-1])
			if !prev.Less(EventKey[*counterSnapshot](ev)) {
				t.Fatalf("log not strictly ordered at index %d", i)
			}
		}
	}

	for k, c := range h.checkpoints {
		if k > 0 {
			prev := checkpointKey(h.checkpoints[k-1])
			if checkpointKey(c).Less(prev) {
				t.Fatalf("checkpoint chain decreases at index %d", k)
			}
		}

		if c.NextEventIndex > len(h.events) {
			t.Fatalf("checkpoint %d next index %d past log length %d", k, c.NextEventIndex, len(h.events))
		}
		if k == 0 {
			// The origin never changes: empty state pinned at the minimum
			// time, saturated so the resume search forks before touching it.
			if c.NextEventIndex != 0 || c.EventCount != h.interval || c.State.Sum != 0 ||
				len(c.State.Items) != 0 || c.State.At != math.MinInt64 {
				t.Fatalf("origin checkpoint mutated: %+v", c)
			}
			continue
		}
		replayed := newCounter(snapZero)
		for _, ev := range h.events[:c.NextEventIndex] {
			ev.ApplyTo(replayed)
			replayed.SetTime(ev.At)
		}
		if !replayed.Equal(c.State) {
			t.Fatalf("checkpoint %d state diverges from replay of its prefix", k)
		}

		if k > 0 && k < len(h.checkpoints)-1 && c.EventCount != h.interval {
			t.Fatalf("interior checkpoint %d has event count %d, want %d", k, c.EventCount, h.interval)
		}
	}

	if last := h.checkpoints[len(h.checkpoints)-1]; last.NextEventIndex != len(h.events) {
		t.Fatalf("tail checkpoint next index %d, want log length %d", last.NextEventIndex, len(h.events))
	}
}

func TestHistoryEmptyStart(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))

	if got := h.SnapshotAt(1); got.Sum != 1 {
		t.Errorf("SnapshotAt(1).Sum = %d, want 1", got.Sum)
	}
	if h.LogLen() != 1 {
		t.Errorf("log length = %d, want 1", h.LogLen())
	}
	if h.CheckpointCount() != 2 {
		t.Errorf("chain length = %d, want 2", h.CheckpointCount())
	}
	tail := h.checkpoints[1]
	if tail.NextEventIndex != 1 || tail.EventCount != 1 {
		t.Errorf("tail = {next %d count %d}, want {next 1 count 1}", tail.NextEventIndex, tail.EventCount)
	}
	checkInvariants(t, h)
}

func TestHistoryInOrderPair(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))
	h.ApplyEvent(evt(2, 2, 2))

	if got := h.SnapshotAt(2); got.Sum != 3 {
		t.Errorf("SnapshotAt(2).Sum = %d, want 3", got.Sum)
	}
	if h.checkpoints[1].EventCount != 2 {
		t.Errorf("tail event count = %d, want 2", h.checkpoints[1].EventCount)
	}
	// The fork happens when the next event would overflow the interval, not
	// when the interval fills.
	if h.CheckpointCount() != 2 {
		t.Errorf("chain length = %d, want 2", h.CheckpointCount())
	}
	checkInvariants(t, h)
}

func TestHistoryOutOfOrderInsert(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(2, 2, 2))
	h.ApplyEvent(evt(1, 1, 1))

	if h.LogLen() != 2 {
		t.Fatalf("log length = %d, want 2", h.LogLen())
	}
	if h.events[0].At != 1 || h.events[1].At != 2 {
		t.Errorf("log order = [%d, %d], want [1, 2]", h.events[0].At, h.events[1].At)
	}
	if got := h.SnapshotAt(1); got.Sum != 1 {
		t.Errorf("SnapshotAt(1).Sum = %d, want 1", got.Sum)
	}
	if got := h.SnapshotAt(2); got.Sum != 3 {
		t.Errorf("SnapshotAt(2).Sum = %d, want 3", got.Sum)
	}
	checkInvariants(t, h)
}

func TestHistoryDuplicateID(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))
	h.ApplyEvent(evt(1, 1, 1))

	if h.LogLen() != 1 {
		t.Errorf("log length = %d, want 1", h.LogLen())
	}
	for _, at := range []int64{1, 2, 100} {
		if got := h.SnapshotAt(at); got.Sum != 1 {
			t.Errorf("SnapshotAt(%d).Sum = %d, want 1", at, got.Sum)
		}
	}
	checkInvariants(t, h)
}

func TestHistoryDuplicateIDDifferentTime(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))

	// Same id at a different time and with a different payload: the first
	// occurrence wins.
	h.ApplyEvent(counterEvent{EventID: testID(1), At: 9, Snap: snapZero, Value: 50})

	if h.LogLen() != 1 {
		t.Errorf("log length = %d, want 1", h.LogLen())
	}
	if got := h.SnapshotAt(10); got.Sum != 1 {
		t.Errorf("SnapshotAt(10).Sum = %d, want 1", got.Sum)
	}
	checkInvariants(t, h)
}

func TestHistoryWrongIdentity(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(counterEvent{EventID: testID(1), At: 1, Snap: testID(99), Value: 1})

	if h.LogLen() != 0 {
		t.Errorf("log length = %d, want 0", h.LogLen())
	}
	for _, at := range []int64{0, 1, 5} {
		if got := h.SnapshotAt(at); got.Sum != 0 {
			t.Errorf("SnapshotAt(%d).Sum = %d, want 0", at, got.Sum)
		}
	}
	checkInvariants(t, h)
}

func TestHistoryCheckpointFork(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))
	h.ApplyEvent(evt(2, 2, 2))
	h.ApplyEvent(evt(3, 3, 3))

	if h.CheckpointCount() != 3 {
		t.Fatalf("chain length = %d, want 3", h.CheckpointCount())
	}
	full := h.checkpoints[1]
	if full.NextEventIndex != 2 || full.State.Sum != 3 {
		t.Errorf("forked checkpoint = {next %d sum %d}, want {next 2 sum 3}", full.NextEventIndex, full.State.Sum)
	}
	checkInvariants(t, h)
}

func TestHistoryQueryBeforeFirstEvent(t *testing.T) {
	h := counterHistory(2)
	for i, at := range []int64{4, 5, 6, 7} {
		h.ApplyEvent(evt(uint64(i+1), at, 1))
	}

	if got := h.SnapshotAt(3); got.Sum != 0 || got.At != 0 {
		t.Errorf("SnapshotAt(3) = {sum %d time %d}, want the initial state", got.Sum, got.At)
	}
	if got := h.SnapshotAt(math.MinInt64); got.Sum != 0 {
		t.Errorf("SnapshotAt(min).Sum = %d, want 0", got.Sum)
	}
	if got := h.SnapshotAt(math.MaxInt64); got.Sum != 4 {
		t.Errorf("SnapshotAt(max).Sum = %d, want 4", got.Sum)
	}
}

func TestHistoryQueryDoesNotMutate(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))
	h.ApplyEvent(evt(2, 2, 2))

	first := h.SnapshotAt(2)
	first.Items[0] = 99
	first.Sum = -1

	if got := h.SnapshotAt(2); got.Sum != 3 || got.Items[0] != 1 {
		t.Errorf("mutating a returned snapshot leaked into the history: %+v", got)
	}
	checkInvariants(t, h)
}

// testEvents is a fixed mix of negative times, shared timestamps, and
// positive and negative values used by the property tests.
func testEvents() []counterEvent {
	return []counterEvent{
		evt(1, -5, 2),
		evt(2, 0, 3),
		evt(3, 0, -1),
		evt(4, 7, 5),
		evt(5, 7, -2),
		evt(6, 9, 1),
		evt(7, 12, -4),
	}
}

func queryTimes() []int64 {
	return []int64{math.MinInt64, -6, -5, -1, 0, 3, 6, 7, 8, 9, 11, 12, 100, math.MaxInt64}
}

func TestHistoryOrderIndependence(t *testing.T) {
	base := testEvents()
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		events := append([]counterEvent(nil), base...)
		rng.Shuffle(len(events), func(i, j int) {
			events[i], events[j] = events[j], events[i]
		})

		h := counterHistory(2)
		for _, ev := range events {
			h.ApplyEvent(ev)
			checkInvariants(t, h)
		}

		for _, at := range queryTimes() {
			want := replayCounter(base, at)
			if got := h.SnapshotAt(at); !got.Equal(want) {
				t.Fatalf("trial %d: SnapshotAt(%d) = %+v, want %+v", trial, at, got, want)
			}
		}
	}
}

func TestHistoryDedupIdempotence(t *testing.T) {
	base := testEvents()
	rng := rand.New(rand.NewSource(7))

	h := counterHistory(3)
	for _, ev := range base {
		h.ApplyEvent(ev)
	}
	// Re-deliver every event a few more times in random order.
	for trial := 0; trial < 5; trial++ {
		events := append([]counterEvent(nil), base...)
		rng.Shuffle(len(events), func(i, j int) {
			events[i], events[j] = events[j], events[i]
		})
		for _, ev := range events {
			h.ApplyEvent(ev)
		}
	}

	if h.LogLen() != len(base) {
		t.Fatalf("log length = %d, want %d", h.LogLen(), len(base))
	}
	for _, at := range queryTimes() {
		want := replayCounter(base, at)
		if got := h.SnapshotAt(at); !got.Equal(want) {
			t.Fatalf("SnapshotAt(%d) = %+v, want %+v", at, got, want)
		}
	}
	checkInvariants(t, h)
}

func TestHistoryRandomizedAgainstReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		interval := 1 + rng.Intn(5)
		h := counterHistory(interval)

		var delivered []counterEvent
		for i := 0; i < 60; i++ {
			ev := evt(uint64(i+1), int64(rng.Intn(41)-20), int16(rng.Intn(21)-10))
			delivered = append(delivered, ev)
			h.ApplyEvent(ev)
		}
		checkInvariants(t, h)

		for at := int64(-22); at <= 22; at++ {
			want := replayCounter(delivered, at)
			if got := h.SnapshotAt(at); !got.Equal(want) {
				t.Fatalf("trial %d (interval %d): SnapshotAt(%d) = %+v, want %+v", trial, interval, at, got, want)
			}
		}
	}
}

func TestHistoryAdvanceIsANoOp(t *testing.T) {
	h := counterHistory(2)
	h.ApplyEvent(evt(1, 1, 1))

	if got := h.Advance(100); got != 0 {
		t.Errorf("Advance = %d, want 0", got)
	}
	if h.LogLen() != 1 || h.CheckpointCount() != 2 {
		t.Errorf("Advance changed the history: log %d chain %d", h.LogLen(), h.CheckpointCount())
	}
}

func TestNewHistoryDefaultsInterval(t *testing.T) {
	h := NewHistory[*counterSnapshot, counterEvent](snapZero, func() *counterSnapshot {
		return newCounter(snapZero)
	}, 0)

	if h.CheckpointInterval() != DefaultCheckpointInterval {
		t.Errorf("interval = %d, want %d", h.CheckpointInterval(), DefaultCheckpointInterval)
	}
	if h.checkpoints[0].EventCount != DefaultCheckpointInterval {
		t.Errorf("origin event count = %d, want saturated %d", h.checkpoints[0].EventCount, DefaultCheckpointInterval)
	}
}
