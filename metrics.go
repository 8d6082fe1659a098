package codeindex

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metrics/prometheus provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSearch is called when Populate returns.
	RecordSearch(results int, duration time.Duration, err error)

	// RecordBatch is called after each batch of candidates is verified.
	RecordBatch(candidates int, duration time.Duration)

	// RecordLoadFailure is called for each document skipped because it
	// could not be loaded.
	RecordLoadFailure()

	// RecordBuild is called after an index is written.
	RecordBuild(documents int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBatch(int, time.Duration)         {}
func (NoopMetricsCollector) RecordLoadFailure()                     {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchResults    atomic.Int64
	SearchTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	Candidates       atomic.Int64
	LoadFailures     atomic.Int64
	BuildCount       atomic.Int64
	BuildErrors      atomic.Int64
	BuildDocuments   atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(results int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchResults.Add(int64(results))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordBatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatch(candidates int, _ time.Duration) {
	b.BatchCount.Add(1)
	b.Candidates.Add(int64(candidates))
}

// RecordLoadFailure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoadFailure() {
	b.LoadFailures.Add(1)
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(documents int, _ time.Duration, err error) {
	b.BuildCount.Add(1)
	b.BuildDocuments.Add(int64(documents))
	if err != nil {
		b.BuildErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchResults:  b.SearchResults.Load(),
		SearchAvgNanos: b.getAvgSearchNanos(),
		BatchCount:     b.BatchCount.Load(),
		Candidates:     b.Candidates.Load(),
		LoadFailures:   b.LoadFailures.Load(),
		BuildCount:     b.BuildCount.Load(),
		BuildErrors:    b.BuildErrors.Load(),
		BuildDocuments: b.BuildDocuments.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount    int64
	SearchErrors   int64
	SearchResults  int64
	SearchAvgNanos int64
	BatchCount     int64
	Candidates     int64
	LoadFailures   int64
	BuildCount     int64
	BuildErrors    int64
	BuildDocuments int64
}
