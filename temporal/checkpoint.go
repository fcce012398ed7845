package temporal

// Checkpoint is a materialized snapshot state pinned to a position in the
// event log.
//
// NextEventIndex is the index of the next event not yet applied to State;
// the state therefore equals the result of replaying exactly the first
// NextEventIndex events of the log onto the initial state. EventCount is the
// number of events applied since the previous checkpoint and decides when the
// engine forks a new one.
type Checkpoint[S Snapshot[S]] struct {
	State          S
	NextEventIndex int
	EventCount     int
}

// clone returns a checkpoint with a deep copy of the state and the same log
// position.
func (c *Checkpoint[S]) clone() *Checkpoint[S] {
	return &Checkpoint[S]{
		State:          c.State.Clone(),
		NextEventIndex: c.NextEventIndex,
		EventCount:     c.EventCount,
	}
}

// checkpointKey projects a checkpoint onto the ordering key of its state.
func checkpointKey[S Snapshot[S]](c *Checkpoint[S]) Key {
	return SnapshotKey(c.State)
}
