package emit

import (
	"context"
	"testing"
)

// The compile-time checks below pin every emitter to the interface.
var (
	_ Emitter = (*NullEmitter)(nil)
	_ Emitter = (*LogEmitter)(nil)
	_ Emitter = (*BufferedEmitter)(nil)
	_ Emitter = (*OTelEmitter)(nil)
)

func TestNullEmitter(t *testing.T) {
	emitter := NewNullEmitter()

	emitter.Emit(Event{SnapshotID: "a", Msg: MsgEventApplied})
	if err := emitter.EmitBatch(context.Background(), []Event{{Msg: MsgEventApplied}}); err != nil {
		t.Errorf("EmitBatch: %v", err)
	}
	if err := emitter.Flush(context.Background()); err != nil {
		t.Errorf("Flush: %v", err)
	}
}
