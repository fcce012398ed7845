// Package temporal implements an in-memory, event-sourced temporal store.
//
// Clients submit timestamped events; the store reconstructs the state of any
// named snapshot identity at any requested point in time by replaying the
// events that target it. Each identity is backed by a History: an ordered
// event log plus a sparse chain of materialized checkpoints that together
// absorb out-of-order ingestion: an insert locates its position in
// logarithmic time and replays at most about one checkpoint interval of
// events when it lands near the tail, while an insert at the very front of
// a long log replays the whole log.
//
// A History is single-writer and not internally synchronized. The Worker,
// Router, and Service types supply the concurrency layer: histories live
// inside workers that serialize all mutations on one goroutine, and the
// router shards snapshot identities across workers.
package temporal
