package temporal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tempora-go/tempora/temporal/emit"
)

// Service is the thin public surface of the store: submit events, read
// snapshots at a point in time. It wraps a Router and the workers behind it.
//
// Example:
//
//	svc, err := temporal.New[*Account, LedgerEvent](
//	    newAccount,
//	    temporal.WithWorkers(4),
//	    temporal.WithCheckpointInterval(64),
//	)
//	if err != nil { ... }
//	defer svc.Close(context.Background())
//
//	_ = svc.Send(ctx, deposit)
//	acct, err := svc.At(ctx, 1700000000, accountID)
type Service[S Snapshot[S], E Event[S]] struct {
	router  *Router[S, E]
	emitter emit.Emitter
}

// New creates a Service. newState constructs the default state for a
// snapshot identity and must pre-bind the identity it is given.
func New[S Snapshot[S], E Event[S]](newState func(uuid.UUID) S, opts ...Option) (*Service[S, E], error) {
	if newState == nil {
		return nil, fmt.Errorf("%w: newState must not be nil", ErrInvalidOption)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Service[S, E]{
		router:  NewRouter[S, E](newState, cfg),
		emitter: cfg.Emitter,
	}, nil
}

// Send submits an event for ingestion. Delivery to the owning worker is
// ordered per identity; the event is visible to At once the worker has
// drained it.
func (s *Service[S, E]) Send(ctx context.Context, event E) error {
	return s.router.Send(ctx, event)
}

// At returns the state of snapshotID after every event at or before t. The
// returned snapshot is an independent clone.
func (s *Service[S, E]) At(ctx context.Context, t int64, snapshotID uuid.UUID) (S, error) {
	return s.router.At(ctx, t, snapshotID)
}

// Advance moves the store's logical clock forward, giving every history a
// chance to release old data. The reference engine keeps everything.
func (s *Service[S, E]) Advance(ctx context.Context, t int64) error {
	return s.router.Advance(ctx, t)
}

// SetMemoryBudget replaces the per-worker memory budget at runtime.
func (s *Service[S, E]) SetMemoryBudget(ctx context.Context, bytes int64) error {
	return s.router.SetMemoryBudget(ctx, bytes)
}

// Close drains and stops the workers, then flushes the emitter.
func (s *Service[S, E]) Close(ctx context.Context) error {
	s.router.Close()
	return s.emitter.Flush(ctx)
}
