// Package emit provides event emission and observability for the temporal
// store.
package emit

// Event is an observability record emitted while the store runs.
//
// Events cover the lifecycle of the ingest and query paths: an event applied
// to a history, an event ignored or skipped, a snapshot query answered, the
// logical clock advanced. They are delivered to an Emitter which can log
// them, buffer them for inspection, or turn them into OpenTelemetry spans.
type Event struct {
	// SnapshotID is the string form of the snapshot identity the record
	// concerns. Empty for store-level records.
	SnapshotID string

	// Time is the logical time carried by the operation, when it has one.
	Time int64

	// Msg names the record, e.g. "event_applied", "event_skipped",
	// "snapshot_queried".
	Msg string

	// Meta carries additional structured data. Common keys:
	//   - "event_id": id of the ingested event
	//   - "reason": why an event was ignored or skipped
	//   - "bytes": conservative size accounted for an event
	//   - "cache_hit": whether a query was answered from the cache
	Meta map[string]interface{}
}

// Record names emitted by the store.
const (
	MsgEventApplied    = "event_applied"
	MsgEventIgnored    = "event_ignored"
	MsgEventSkipped    = "event_skipped"
	MsgSnapshotQueried = "snapshot_queried"
	MsgTimeAdvanced    = "time_advanced"
)
