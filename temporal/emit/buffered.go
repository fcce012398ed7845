package emit

import (
	"context"
	"sync"
)

// BufferedEmitter stores events in memory, organized by snapshot identity,
// and provides query capabilities over them. Intended for tests, debugging,
// and post-hoc analysis; it never discards anything, so long-running
// production use needs periodic Clear calls.
type BufferedEmitter struct {
	mu     sync.RWMutex
	events map[string][]Event // snapshot id -> events in emission order
}

// HistoryFilter selects events from a BufferedEmitter. All set fields must
// match (AND logic); zero values match everything.
type HistoryFilter struct {
	Msg     string // filter by record name (empty = no filter)
	MinTime *int64 // minimum logical time (nil = no filter)
	MaxTime *int64 // maximum logical time (nil = no filter)
}

// NewBufferedEmitter creates a BufferedEmitter.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{events: make(map[string][]Event)}
}

// Emit stores the event under its snapshot identity.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[event.SnapshotID] = append(b.events[event.SnapshotID], event)
}

// EmitBatch stores all events in order.
func (b *BufferedEmitter) EmitBatch(_ context.Context, events []Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, event := range events {
		b.events[event.SnapshotID] = append(b.events[event.SnapshotID], event)
	}
	return nil
}

// Flush is a no-op; buffered events stay queryable until cleared.
func (b *BufferedEmitter) Flush(_ context.Context) error {
	return nil
}

// History returns a copy of every event recorded for the given snapshot
// identity, in emission order.
func (b *BufferedEmitter) History(snapshotID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	events := b.events[snapshotID]
	result := make([]Event, len(events))
	copy(result, events)
	return result
}

// HistoryWithFilter returns the recorded events for a snapshot identity that
// match the filter, in emission order.
func (b *BufferedEmitter) HistoryWithFilter(snapshotID string, filter HistoryFilter) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := []Event{}
	for _, event := range b.events[snapshotID] {
		if matchesFilter(event, filter) {
			result = append(result, event)
		}
	}
	return result
}

func matchesFilter(event Event, filter HistoryFilter) bool {
	if filter.Msg != "" && event.Msg != filter.Msg {
		return false
	}
	if filter.MinTime != nil && event.Time < *filter.MinTime {
		return false
	}
	if filter.MaxTime != nil && event.Time > *filter.MaxTime {
		return false
	}
	return true
}

// Clear removes stored events for one snapshot identity, or everything when
// snapshotID is empty.
func (b *BufferedEmitter) Clear(snapshotID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if snapshotID == "" {
		b.events = make(map[string][]Event)
	} else {
		delete(b.events, snapshotID)
	}
}
