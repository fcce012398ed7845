package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// LogEmitter writes structured log output to a writer.
//
// Two output modes are supported: a human-readable text format with
// key=value pairs, and a machine-readable JSONL format (one event per line).
//
// Example text output:
//
//	[event_applied] snapshot=7b1d… time=42 meta={"bytes":26}
//
// Example JSON output:
//
//	{"snapshotID":"7b1d…","time":42,"msg":"event_applied","meta":{"bytes":26}}
type LogEmitter struct {
	mu       sync.Mutex
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter creates a LogEmitter writing to writer (os.Stdout when nil).
// jsonMode selects JSONL output instead of text.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit writes one event to the configured writer.
func (l *LogEmitter) Emit(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.write(event)
}

// EmitBatch writes all events in order under a single lock acquisition.
func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, event := range events {
		l.write(event)
	}
	return nil
}

// Flush is a no-op: the emitter writes through to the underlying writer.
// Wrap the writer in a bufio.Writer and flush that for buffered output.
func (l *LogEmitter) Flush(_ context.Context) error {
	return nil
}

func (l *LogEmitter) write(event Event) {
	if l.jsonMode {
		l.writeJSON(event)
	} else {
		l.writeText(event)
	}
}

func (l *LogEmitter) writeJSON(event Event) {
	data, err := json.Marshal(struct {
		SnapshotID string                 `json:"snapshotID"`
		Time       int64                  `json:"time"`
		Msg        string                 `json:"msg"`
		Meta       map[string]interface{} `json:"meta"`
	}{
		SnapshotID: event.SnapshotID,
		Time:       event.Time,
		Msg:        event.Msg,
		Meta:       event.Meta,
	})
	if err != nil {
		_, _ = fmt.Fprintf(l.writer, "{\"error\":\"failed to marshal event: %v\"}\n", err)
		return
	}
	_, _ = fmt.Fprintf(l.writer, "%s\n", data)
}

func (l *LogEmitter) writeText(event Event) {
	_, _ = fmt.Fprintf(l.writer, "[%s] snapshot=%s time=%d", event.Msg, event.SnapshotID, event.Time)

	if len(event.Meta) > 0 {
		if metaJSON, err := json.Marshal(event.Meta); err == nil {
			_, _ = fmt.Fprintf(l.writer, " meta=%s", metaJSON)
		} else {
			_, _ = fmt.Fprintf(l.writer, " meta=%v", event.Meta)
		}
	}

	_, _ = fmt.Fprint(l.writer, "\n")
}
