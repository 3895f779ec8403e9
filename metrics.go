package vecseg

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordSearch is called after each search operation.
	// duration is the time taken, err is nil if successful.
	RecordSearch(duration time.Duration, err error)

	// RecordRetrieve is called after each retrieve operation.
	// rows is the number of matched rows, duration is the time taken.
	RecordRetrieve(rows int, duration time.Duration, err error)

	// RecordFill is called after each result materialization pass
	// (primary keys or target entries).
	RecordFill(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(time.Duration, error)        {}
func (NoopMetricsCollector) RecordRetrieve(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFill(time.Duration, error)          {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount        atomic.Int64
	SearchErrors       atomic.Int64
	SearchTotalNanos   atomic.Int64
	RetrieveCount      atomic.Int64
	RetrieveErrors     atomic.Int64
	RetrieveRows       atomic.Int64
	RetrieveTotalNanos atomic.Int64
	FillCount          atomic.Int64
	FillErrors         atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordRetrieve implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRetrieve(rows int, duration time.Duration, err error) {
	b.RetrieveCount.Add(1)
	b.RetrieveRows.Add(int64(rows))
	b.RetrieveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RetrieveErrors.Add(1)
	}
}

// RecordFill implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFill(duration time.Duration, err error) {
	b.FillCount.Add(1)
	if err != nil {
		b.FillErrors.Add(1)
	}
}
