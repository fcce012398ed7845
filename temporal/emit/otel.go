package emit

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns store events into OpenTelemetry spans.
//
// Each event becomes a span named after event.Msg, carrying the snapshot
// identity and logical time as attributes along with every Meta field. A
// Meta["error"] string sets the span status to error. Spans are ended
// immediately: store events represent points in time, not durations.
//
// Usage:
//
//	tracer := otel.Tracer("tempora")
//	emitter := emit.NewOTelEmitter(tracer)
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter creates an OTelEmitter using the given tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit creates and ends one span for the event.
func (o *OTelEmitter) Emit(event Event) {
	o.span(context.Background(), event)
}

// EmitBatch creates spans for all events under the given context, letting
// the span processor batch the export.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		o.span(ctx, event)
	}
	return nil
}

// Flush forces export of pending spans when the registered tracer provider
// supports it (the SDK provider does; the noop provider does not).
func (o *OTelEmitter) Flush(ctx context.Context) error {
	tp := otel.GetTracerProvider()

	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := tp.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) span(ctx context.Context, event Event) {
	_, span := o.tracer.Start(ctx, event.Msg)
	defer span.End()

	span.SetAttributes(
		attribute.String("tempora.snapshot_id", event.SnapshotID),
		attribute.Int64("tempora.time", event.Time),
	)
	o.addMetaAttributes(span, event.Meta)

	if err, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, err)
		span.RecordError(fmt.Errorf("%s", err))
	}
}

// addMetaAttributes converts Meta values to span attributes, mapping the
// common Go scalar types directly and falling back to %v for the rest.
func (o *OTelEmitter) addMetaAttributes(span trace.Span, meta map[string]interface{}) {
	for key, value := range meta {
		attrKey := "tempora." + key

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}
}
