package temporal

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics collects store metrics for production monitoring.
//
// Metrics exposed (all namespaced with "tempora_"):
//
//   - events_applied_total (counter): events accepted into a history.
//   - events_ignored_total (counter): events dropped without a state change,
//     labeled by reason (duplicate, over_budget).
//   - apply_latency_ms (histogram): time spent inserting one event,
//     including checkpoint replay.
//   - query_latency_ms (histogram): time spent answering one snapshot-at
//     query.
//   - queue_depth (gauge): pending operations across worker queues.
//   - histories (gauge): live history count across workers.
//   - memory_usage_bytes (gauge): conservative accounted event bytes.
//   - snapshot_cache_hits_total / snapshot_cache_misses_total (counters).
//
// All methods are safe for concurrent use.
type PrometheusMetrics struct {
	eventsApplied prometheus.Counter
	eventsIgnored *prometheus.CounterVec
	applyLatency  prometheus.Histogram
	queryLatency  prometheus.Histogram
	queueDepth    prometheus.Gauge
	histories     prometheus.Gauge
	memoryUsage   prometheus.Gauge
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter

	mu      sync.RWMutex
	enabled bool
}

// Ignore reasons used as the events_ignored_total label value. Events with a
// mismatched identity never reach a worker (the router shards by the event's
// own snapshot id), so these are the only reasons the store can record.
const (
	IgnoredDuplicate  = "duplicate"
	IgnoredOverBudget = "over_budget"
)

// NewPrometheusMetrics creates and registers all store metrics with the
// provided registry. A nil registry selects prometheus.DefaultRegisterer.
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{enabled: true}

	pm.eventsApplied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "tempora",
		Name:      "events_applied_total",
		Help:      "Events accepted into a history",
	})

	pm.eventsIgnored = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tempora",
		Name:      "events_ignored_total",
		Help:      "Events dropped without a state change",
	}, []string{"reason"})

	pm.applyLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tempora",
		Name:      "apply_latency_ms",
		Help:      "Time spent inserting one event, including checkpoint replay",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
	})

	pm.queryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tempora",
		Name:      "query_latency_ms",
		Help:      "Time spent answering one snapshot-at query",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
	})

	pm.queueDepth = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "tempora",
		Name:      "queue_depth",
		Help:      "Pending operations across worker queues",
	})

	pm.histories = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "tempora",
		Name:      "histories",
		Help:      "Live history count across workers",
	})

	pm.memoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "tempora",
		Name:      "memory_usage_bytes",
		Help:      "Conservative accounted size of retained events",
	})

	pm.cacheHits = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "tempora",
		Name:      "snapshot_cache_hits_total",
		Help:      "Snapshot-at queries answered from the worker cache",
	})

	pm.cacheMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "tempora",
		Name:      "snapshot_cache_misses_total",
		Help:      "Snapshot-at queries that replayed from a checkpoint",
	})

	return pm
}

// RecordApplied counts one accepted event and its apply latency.
func (pm *PrometheusMetrics) RecordApplied(latency time.Duration) {
	if !pm.isEnabled() {
		return
	}
	pm.eventsApplied.Inc()
	pm.applyLatency.Observe(float64(latency) / float64(time.Millisecond))
}

// RecordIgnored counts one dropped event by reason.
func (pm *PrometheusMetrics) RecordIgnored(reason string) {
	if !pm.isEnabled() {
		return
	}
	pm.eventsIgnored.WithLabelValues(reason).Inc()
}

// RecordQuery counts one snapshot-at query, its cache outcome, and latency.
func (pm *PrometheusMetrics) RecordQuery(cacheHit bool, latency time.Duration) {
	if !pm.isEnabled() {
		return
	}
	if cacheHit {
		pm.cacheHits.Inc()
	} else {
		pm.cacheMisses.Inc()
	}
	pm.queryLatency.Observe(float64(latency) / float64(time.Millisecond))
}

// AddQueueDepth adjusts the queue depth gauge by delta.
func (pm *PrometheusMetrics) AddQueueDepth(delta int) {
	if !pm.isEnabled() {
		return
	}
	pm.queueDepth.Add(float64(delta))
}

// AddHistories adjusts the live history gauge by delta. Workers report
// deltas so the gauge stays correct across shards.
func (pm *PrometheusMetrics) AddHistories(delta int) {
	if !pm.isEnabled() {
		return
	}
	pm.histories.Add(float64(delta))
}

// AddMemoryUsage adjusts the accounted memory gauge by delta bytes.
func (pm *PrometheusMetrics) AddMemoryUsage(delta int64) {
	if !pm.isEnabled() {
		return
	}
	pm.memoryUsage.Add(float64(delta))
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}
