package featbank

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus.
type MetricsCollector interface {
	// RecordSample is called after each sample operation.
	// duration is the total time taken, err is nil if successful.
	RecordSample(duration time.Duration, err error)

	// RecordFetch is called after each backend record fetch. For in-memory
	// backends this is a map lookup; for the persistent backend it includes
	// the read and decode.
	RecordFetch(duration time.Duration, err error)

	// RecordLoad is called once after the construction-time bank load.
	RecordLoad(partitions int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSample(time.Duration, error)    {}
func (NoopMetricsCollector) RecordFetch(time.Duration, error)     {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SampleCount      atomic.Int64
	SampleErrors     atomic.Int64
	SampleTotalNanos atomic.Int64
	FetchCount       atomic.Int64
	FetchErrors      atomic.Int64
	FetchTotalNanos  atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadPartitions   atomic.Int64
	LoadTotalNanos   atomic.Int64
}

// RecordSample implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSample(duration time.Duration, err error) {
	b.SampleCount.Add(1)
	b.SampleTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SampleErrors.Add(1)
	}
}

// RecordFetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFetch(duration time.Duration, err error) {
	b.FetchCount.Add(1)
	b.FetchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FetchErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(partitions int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadPartitions.Add(int64(partitions))
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// BasicMetricsStats is a snapshot of a BasicMetricsCollector.
type BasicMetricsStats struct {
	SampleCount    int64
	SampleErrors   int64
	SampleAvgNanos int64
	FetchCount     int64
	FetchErrors    int64
	FetchAvgNanos  int64
	LoadCount      int64
	LoadErrors     int64
	LoadPartitions int64
	LoadAvgNanos   int64
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	stats := BasicMetricsStats{
		SampleCount:    b.SampleCount.Load(),
		SampleErrors:   b.SampleErrors.Load(),
		FetchCount:     b.FetchCount.Load(),
		FetchErrors:    b.FetchErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadPartitions: b.LoadPartitions.Load(),
	}
	if stats.SampleCount > 0 {
		stats.SampleAvgNanos = b.SampleTotalNanos.Load() / stats.SampleCount
	}
	if stats.FetchCount > 0 {
		stats.FetchAvgNanos = b.FetchTotalNanos.Load() / stats.FetchCount
	}
	if stats.LoadCount > 0 {
		stats.LoadAvgNanos = b.LoadTotalNanos.Load() / stats.LoadCount
	}
	return stats
}
