package emit

import "context"

// NullEmitter discards all events. It is the default emitter: zero overhead,
// safe for concurrent use.
type NullEmitter struct{}

// NewNullEmitter creates a NullEmitter.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event.
func (n *NullEmitter) Emit(event Event) {}

// EmitBatch discards the events.
func (n *NullEmitter) EmitBatch(_ context.Context, events []Event) error {
	return nil
}

// Flush is a no-op.
func (n *NullEmitter) Flush(_ context.Context) error {
	return nil
}
