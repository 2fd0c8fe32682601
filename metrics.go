package classifier

import (
	"math"
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    pairs     prometheus.Counter
//	    iteration prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordIteration(iteration, changed int, cost float64, d time.Duration) {
//	    p.iteration.Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordPrecompute is called after each precompute run.
	// pairs is the size of the pair universe, computed the number of metric
	// calls, failed the number of pairs that returned an error.
	RecordPrecompute(pairs int, computed int64, failed int, duration time.Duration, err error)

	// RecordIteration is called after each clustering iteration.
	// changed is the number of medoids replaced, cost the total distance of
	// the assignment that preceded the update.
	RecordIteration(iteration, changed int, cost float64, duration time.Duration)

	// RecordCachePersist is called after each cache save.
	RecordCachePersist(entries int, duration time.Duration, err error)

	// RecordCacheLoad is called after each cache load attempt.
	RecordCacheLoad(entries int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPrecompute(int, int64, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordIteration(int, int, float64, time.Duration)      {}
func (NoopMetricsCollector) RecordCachePersist(int, time.Duration, error)          {}
func (NoopMetricsCollector) RecordCacheLoad(int, time.Duration, error)             {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PrecomputeCount      atomic.Int64
	PrecomputeErrors     atomic.Int64
	PrecomputePairs      atomic.Int64
	PrecomputeComputed   atomic.Int64
	PrecomputeFailed     atomic.Int64
	PrecomputeTotalNanos atomic.Int64
	IterationCount       atomic.Int64
	IterationChanged     atomic.Int64
	IterationTotalNanos  atomic.Int64
	LastCostBits         atomic.Uint64
	PersistCount         atomic.Int64
	PersistErrors        atomic.Int64
	PersistEntries       atomic.Int64
	LoadCount            atomic.Int64
	LoadErrors           atomic.Int64
	LoadEntries          atomic.Int64
}

// RecordPrecompute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrecompute(pairs int, computed int64, failed int, duration time.Duration, err error) {
	b.PrecomputeCount.Add(1)
	b.PrecomputePairs.Add(int64(pairs))
	b.PrecomputeComputed.Add(computed)
	b.PrecomputeFailed.Add(int64(failed))
	b.PrecomputeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PrecomputeErrors.Add(1)
	}
}

// RecordIteration implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIteration(iteration, changed int, cost float64, duration time.Duration) {
	b.IterationCount.Add(1)
	b.IterationChanged.Add(int64(changed))
	b.IterationTotalNanos.Add(duration.Nanoseconds())
	b.LastCostBits.Store(math.Float64bits(cost))
}

// RecordCachePersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCachePersist(entries int, duration time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
		return
	}
	b.PersistEntries.Store(int64(entries))
}

// RecordCacheLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheLoad(entries int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadEntries.Store(int64(entries))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PrecomputeCount:    b.PrecomputeCount.Load(),
		PrecomputeErrors:   b.PrecomputeErrors.Load(),
		PrecomputePairs:    b.PrecomputePairs.Load(),
		PrecomputeComputed: b.PrecomputeComputed.Load(),
		PrecomputeFailed:   b.PrecomputeFailed.Load(),
		PrecomputeAvgNanos: avg(b.PrecomputeTotalNanos.Load(), b.PrecomputeCount.Load()),
		IterationCount:     b.IterationCount.Load(),
		IterationChanged:   b.IterationChanged.Load(),
		IterationAvgNanos:  avg(b.IterationTotalNanos.Load(), b.IterationCount.Load()),
		LastCost:           math.Float64frombits(b.LastCostBits.Load()),
		PersistCount:       b.PersistCount.Load(),
		PersistErrors:      b.PersistErrors.Load(),
		PersistEntries:     b.PersistEntries.Load(),
		LoadCount:          b.LoadCount.Load(),
		LoadErrors:         b.LoadErrors.Load(),
		LoadEntries:        b.LoadEntries.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PrecomputeCount    int64
	PrecomputeErrors   int64
	PrecomputePairs    int64
	PrecomputeComputed int64
	PrecomputeFailed   int64
	PrecomputeAvgNanos int64
	IterationCount     int64
	IterationChanged   int64
	IterationAvgNanos  int64
	LastCost           float64
	PersistCount       int64
	PersistErrors      int64
	PersistEntries     int64
	LoadCount          int64
	LoadErrors         int64
	LoadEntries        int64
}
