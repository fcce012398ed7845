package temporal

import "slices"

// applyEvent inserts newEvent into the ordered event log and reforwards the
// checkpoint chain so that every checkpoint again reflects the exact prefix
// of events up to its position. It returns the byte delta to account against
// a memory budget (zero in the reference engine).
//
// The algorithm has three steps:
//
//  1. Place the event. Binary-search the insertion point for the key
//     (time, id); if the element already there carries the same id the event
//     is a duplicate and nothing changes.
//  2. Locate the resume checkpoint: the latest checkpoint whose state is
//     still correct before the inserted event. The sentinel at index 0 is
//     safe to resume from because its saturated EventCount forces an
//     immediate fork before any mutation.
//  3. Replay forward from the resume checkpoint through the end of the log,
//     forking a fresh checkpoint (a clone of the current one) each time the
//     current one has absorbed checkpointInterval events. Later checkpoints
//     that already existed are overwritten by the forks, so the chain stays
//     ordered and consistent.
//
// An insert near the tail replays O(checkpointInterval) events because the
// resume checkpoint is at most one interval behind the insertion point; an
// insert at the very front of a long log replays O(n).
func applyEvent[S Snapshot[S], E Event[S]](
	newEvent E,
	checkpoints *[]*Checkpoint[S],
	events *[]E,
	checkpointInterval int,
) int {
	evs := *events
	k := Key{Time: newEvent.Time(), ID: newEvent.ID()}

	insertAt := 0
	if i, ok := IndexBefore(evs, k, EventKey[S, E]); ok {
		insertAt = i + 1
	}
	if insertAt < len(evs) && evs[insertAt].ID() == newEvent.ID() {
		return 0
	}

	// When every checkpoint orders at or after the event, resume from the
	// origin: its saturated EventCount forks before any mutation, and the
	// working tail may already hold events that sort after the new one.
	cps := *checkpoints
	resume := 0
	if i, ok := IndexBefore(cps, Key{Time: newEvent.Time(), ID: newEvent.SnapshotID()}, checkpointKey[S]); ok {
		resume = i
	}

	evs = slices.Insert(evs, insertAt, newEvent)
	*events = evs

	next := cps[resume].NextEventIndex
	if next > len(evs) {
		next = len(evs)
	}
	for _, event := range evs[next:] {
		if cps[resume].EventCount >= checkpointInterval {
			fork := cps[resume].clone()
			fork.EventCount = 0
			if resume+1 == len(cps) {
				cps = append(cps, fork)
			} else {
				cps[resume+1] = fork
			}
			resume++
		}

		event.ApplyTo(cps[resume].State)
		cps[resume].State.SetTime(event.Time())
		cps[resume].EventCount++
		cps[resume].NextEventIndex++
	}
	*checkpoints = cps

	return 0
}
