package temporal

import (
	"fmt"

	"github.com/tempora-go/tempora/temporal/emit"
)

// Options configures a Service and the workers it owns. Zero values select
// sensible defaults.
type Options struct {
	// CheckpointInterval is the maximum number of events between consecutive
	// checkpoints in every history. Default: DefaultCheckpointInterval.
	// Fixed once the first event has been applied; dynamic change is not
	// supported.
	CheckpointInterval int

	// Workers is the number of worker goroutines snapshot identities are
	// sharded across. Default: 1.
	Workers int

	// QueueDepth is the capacity of each worker's inbound queue. Sends block
	// (respecting their context) while a queue is full. Default: 1024.
	QueueDepth int

	// MemoryBudget caps the conservative byte size of retained events per
	// worker. Events that would push usage past the budget are skipped and
	// reported. Default: 0 (unlimited).
	MemoryBudget int64

	// SnapshotCacheSize enables an LRU cache of query results per worker.
	// Default: 0 (disabled).
	SnapshotCacheSize int

	// Emitter receives observability events. Default: emit.NullEmitter.
	Emitter emit.Emitter

	// Metrics collects Prometheus metrics. Optional; nil disables
	// collection.
	Metrics *PrometheusMetrics
}

// Option is a functional option for configuring a Service.
type Option func(*Options) error

func defaultOptions() Options {
	return Options{
		CheckpointInterval: DefaultCheckpointInterval,
		Workers:            1,
		QueueDepth:         1024,
		Emitter:            emit.NewNullEmitter(),
	}
}

// WithCheckpointInterval sets the checkpoint interval for every history.
// Larger intervals use less memory; smaller ones make out-of-order inserts
// cheaper. The interval must be positive.
func WithCheckpointInterval(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("%w: checkpoint interval must be positive, got %d", ErrInvalidOption, n)
		}
		o.CheckpointInterval = n
		return nil
	}
}

// WithWorkers sets how many worker goroutines snapshot identities are
// sharded across. Cross-history parallelism scales with the worker count;
// a single history is always owned by exactly one worker.
func WithWorkers(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("%w: worker count must be positive, got %d", ErrInvalidOption, n)
		}
		o.Workers = n
		return nil
	}
}

// WithQueueDepth sets the capacity of each worker's inbound queue.
func WithQueueDepth(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("%w: queue depth must be positive, got %d", ErrInvalidOption, n)
		}
		o.QueueDepth = n
		return nil
	}
}

// WithMemoryBudget caps the conservative byte size of retained events per
// worker. A budget of zero disables the cap.
func WithMemoryBudget(bytes int64) Option {
	return func(o *Options) error {
		if bytes < 0 {
			return fmt.Errorf("%w: memory budget must not be negative, got %d", ErrInvalidOption, bytes)
		}
		o.MemoryBudget = bytes
		return nil
	}
}

// WithSnapshotCache enables a per-worker LRU cache of query results holding
// up to n cloned snapshots. Entries are invalidated when their identity
// receives a new event.
func WithSnapshotCache(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return fmt.Errorf("%w: snapshot cache size must not be negative, got %d", ErrInvalidOption, n)
		}
		o.SnapshotCacheSize = n
		return nil
	}
}

// WithEmitter routes observability events to the given emitter.
func WithEmitter(e emit.Emitter) Option {
	return func(o *Options) error {
		if e == nil {
			return fmt.Errorf("%w: emitter must not be nil", ErrInvalidOption)
		}
		o.Emitter = e
		return nil
	}
}

// WithMetrics enables Prometheus metrics collection.
func WithMetrics(m *PrometheusMetrics) Option {
	return func(o *Options) error {
		o.Metrics = m
		return nil
	}
}
