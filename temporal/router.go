package temporal

import (
	"context"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Router shards snapshot identities across a fixed set of workers and
// forwards operations to the owning worker. Sharding is by xxhash of the
// identity, so the same identity always lands on the same worker and
// cross-history parallelism comes for free.
type Router[S Snapshot[S], E Event[S]] struct {
	workers []*Worker[S, E]
	opts    Options

	mu     sync.RWMutex
	closed bool
}

// NewRouter creates the workers and starts their goroutines. newState
// constructs the default state for an identity.
func NewRouter[S Snapshot[S], E Event[S]](newState func(uuid.UUID) S, opts Options) *Router[S, E] {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	workers := make([]*Worker[S, E], opts.Workers)
	for i := range workers {
		workers[i] = newWorker[S, E](fmt.Sprintf("worker-%d", i), newState, opts)
		go workers[i].run()
	}

	return &Router[S, E]{workers: workers, opts: opts}
}

func (r *Router[S, E]) worker(snapshotID uuid.UUID) *Worker[S, E] {
	return r.workers[xxhash.Sum64(snapshotID[:])%uint64(len(r.workers))]
}

// Send routes an event to the worker owning its target identity. Blocks
// while that worker's queue is full, respecting ctx.
func (r *Router[S, E]) Send(ctx context.Context, event E) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	return r.enqueue(ctx, r.worker(event.SnapshotID()), message[S, E]{op: opApply, event: event})
}

// At asks the worker owning snapshotID for the state at time t and waits for
// the answer. Returns ErrUnknownSnapshot when no event for the identity has
// ever been admitted.
func (r *Router[S, E]) At(ctx context.Context, t int64, snapshotID uuid.UUID) (S, error) {
	var zero S

	reply := make(chan queryReply[S], 1)

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return zero, ErrClosed
	}
	err := r.enqueue(ctx, r.worker(snapshotID), message[S, E]{
		op:         opQuery,
		snapshotID: snapshotID,
		time:       t,
		reply:      reply,
	})
	r.mu.RUnlock()
	if err != nil {
		return zero, err
	}

	select {
	case rep := <-reply:
		if !rep.ok {
			return zero, ErrUnknownSnapshot
		}
		return rep.snapshot, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	}
}

// Advance broadcasts a logical-clock advance to every worker.
func (r *Router[S, E]) Advance(ctx context.Context, t int64) error {
	return r.broadcast(ctx, message[S, E]{op: opAdvance, time: t})
}

// SetMemoryBudget broadcasts a new per-worker memory budget.
func (r *Router[S, E]) SetMemoryBudget(ctx context.Context, bytes int64) error {
	return r.broadcast(ctx, message[S, E]{op: opSetBudget, budget: bytes})
}

func (r *Router[S, E]) broadcast(ctx context.Context, msg message[S, E]) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	for _, w := range r.workers {
		if err := r.enqueue(ctx, w, msg); err != nil {
			return err
		}
	}
	return nil
}

// enqueue must run under the read lock so Close cannot tear down a worker's
// inbox mid-send.
func (r *Router[S, E]) enqueue(ctx context.Context, w *Worker[S, E], msg message[S, E]) error {
	select {
	case w.inbox <- msg:
		if r.opts.Metrics != nil {
			r.opts.Metrics.AddQueueDepth(1)
		}
		return nil
	default:
	}

	// The queue is full; wait for space until the caller's context gives out.
	select {
	case w.inbox <- msg:
		if r.opts.Metrics != nil {
			r.opts.Metrics.AddQueueDepth(1)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrQueueFull, ctx.Err())
	}
}

// Close stops accepting operations, lets every worker drain its queue, and
// waits for the worker goroutines to exit. Idempotent.
func (r *Router[S, E]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, w := range r.workers {
		close(w.inbox)
	}
	r.mu.Unlock()

	for _, w := range r.workers {
		<-w.done
	}
}
