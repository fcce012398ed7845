package temporal

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tempora-go/tempora/temporal/emit"
)

type opKind int

const (
	opApply opKind = iota
	opQuery
	opAdvance
	opSetBudget
)

// message is the union of operations a worker accepts on its inbox. Only
// the fields relevant to op are populated.
type message[S Snapshot[S], E Event[S]] struct {
	op         opKind
	event      E
	snapshotID uuid.UUID
	time       int64
	budget     int64
	reply      chan<- queryReply[S]
}

type queryReply[S any] struct {
	snapshot S
	ok       bool
}

// snapshotCacheKey keys the query cache by identity, time, and a per-identity
// generation. Applying an event bumps the generation, so entries for stale
// state become unreachable and age out of the LRU.
type snapshotCacheKey struct {
	id   uuid.UUID
	time int64
	gen  uint64
}

// Worker owns a shard of histories and serializes every mutation on a single
// goroutine, satisfying the single-writer requirement of History. Queries are
// answered on the same goroutine with cloned state, so callers never touch a
// live history.
type Worker[S Snapshot[S], E Event[S]] struct {
	name      string
	inbox     chan message[S, E]
	histories map[uuid.UUID]*History[S, E]
	gens      map[uuid.UUID]uint64
	newState  func(uuid.UUID) S
	opts      Options
	budget    *MemoryBudget
	cache     *lru.Cache[snapshotCacheKey, S]
	done      chan struct{}
}

func newWorker[S Snapshot[S], E Event[S]](name string, newState func(uuid.UUID) S, opts Options) *Worker[S, E] {
	w := &Worker[S, E]{
		name:      name,
		inbox:     make(chan message[S, E], opts.QueueDepth),
		histories: make(map[uuid.UUID]*History[S, E]),
		gens:      make(map[uuid.UUID]uint64),
		newState:  newState,
		opts:      opts,
		budget:    NewMemoryBudget(opts.MemoryBudget),
		done:      make(chan struct{}),
	}
	if opts.SnapshotCacheSize > 0 {
		// The constructor only fails for a non-positive size.
		w.cache, _ = lru.New[snapshotCacheKey, S](opts.SnapshotCacheSize)
	}
	return w
}

// run drains the inbox until it is closed. It is the only goroutine that
// ever touches the worker's histories.
func (w *Worker[S, E]) run() {
	defer close(w.done)

	for msg := range w.inbox {
		if w.opts.Metrics != nil {
			w.opts.Metrics.AddQueueDepth(-1)
		}

		switch msg.op {
		case opApply:
			w.handleApply(msg.event)
		case opQuery:
			w.handleQuery(msg.snapshotID, msg.time, msg.reply)
		case opAdvance:
			w.handleAdvance(msg.time)
		case opSetBudget:
			w.budget.SetLimit(msg.budget)
		}
	}
}

func (w *Worker[S, E]) handleApply(event E) {
	start := time.Now()
	snapshotID := event.SnapshotID()
	bytes := int64(event.ConservativeSize() + event.ApplySizeDelta())

	if w.budget.WouldExceed(bytes) {
		if w.opts.Metrics != nil {
			w.opts.Metrics.RecordIgnored(IgnoredOverBudget)
		}
		w.opts.Emitter.Emit(emit.Event{
			SnapshotID: snapshotID.String(),
			Time:       event.Time(),
			Msg:        emit.MsgEventSkipped,
			Meta: map[string]interface{}{
				"event_id": event.ID().String(),
				"reason":   IgnoredOverBudget,
				"bytes":    bytes,
			},
		})
		return
	}

	h, ok := w.histories[snapshotID]
	if !ok {
		id := snapshotID
		h = NewHistory[S, E](id, func() S { return w.newState(id) }, w.opts.CheckpointInterval)
		w.histories[id] = h
		if w.opts.Metrics != nil {
			w.opts.Metrics.AddHistories(1)
		}
	}

	before := h.LogLen()
	bytes += int64(h.ApplyEvent(event))
	if h.LogLen() == before {
		// The only silent drop left at this point is a duplicate id; wrong
		// identities never reach this worker.
		if w.opts.Metrics != nil {
			w.opts.Metrics.RecordIgnored(IgnoredDuplicate)
		}
		w.opts.Emitter.Emit(emit.Event{
			SnapshotID: snapshotID.String(),
			Time:       event.Time(),
			Msg:        emit.MsgEventIgnored,
			Meta: map[string]interface{}{
				"event_id": event.ID().String(),
				"reason":   IgnoredDuplicate,
			},
		})
		return
	}

	w.budget.Track(w.name, bytes)
	w.gens[snapshotID]++
	if w.opts.Metrics != nil {
		w.opts.Metrics.AddMemoryUsage(bytes)
		w.opts.Metrics.RecordApplied(time.Since(start))
	}
	w.opts.Emitter.Emit(emit.Event{
		SnapshotID: snapshotID.String(),
		Time:       event.Time(),
		Msg:        emit.MsgEventApplied,
		Meta: map[string]interface{}{
			"event_id": event.ID().String(),
			"bytes":    bytes,
		},
	})
}

func (w *Worker[S, E]) handleQuery(snapshotID uuid.UUID, t int64, reply chan<- queryReply[S]) {
	start := time.Now()

	h, ok := w.histories[snapshotID]
	if !ok {
		reply <- queryReply[S]{}
		return
	}

	var snapshot S
	cacheHit := false
	cacheKey := snapshotCacheKey{id: snapshotID, time: t, gen: w.gens[snapshotID]}
	if w.cache != nil {
		if cached, found := w.cache.Get(cacheKey); found {
			snapshot = cached.Clone()
			cacheHit = true
		}
	}
	if !cacheHit {
		snapshot = h.SnapshotAt(t)
		if w.cache != nil {
			w.cache.Add(cacheKey, snapshot.Clone())
		}
	}

	if w.opts.Metrics != nil {
		w.opts.Metrics.RecordQuery(cacheHit, time.Since(start))
	}
	w.opts.Emitter.Emit(emit.Event{
		SnapshotID: snapshotID.String(),
		Time:       t,
		Msg:        emit.MsgSnapshotQueried,
		Meta:       map[string]interface{}{"cache_hit": cacheHit},
	})

	reply <- queryReply[S]{snapshot: snapshot, ok: true}
}

func (w *Worker[S, E]) handleAdvance(t int64) {
	var delta int64
	for _, h := range w.histories {
		delta += int64(h.Advance(t))
	}
	if delta != 0 {
		w.budget.Track(w.name, delta)
		if w.opts.Metrics != nil {
			w.opts.Metrics.AddMemoryUsage(delta)
		}
	}
	w.opts.Emitter.Emit(emit.Event{
		Time: t,
		Msg:  emit.MsgTimeAdvanced,
	})
}
