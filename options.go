package codeindex

import (
	"log/slog"
	"time"
)

const (
	// DefaultBatchSize is the number of candidates verified concurrently.
	DefaultBatchSize = 100
	// DefaultChannelCapacity bounds confirmed results waiting for the
	// receiver.
	DefaultChannelCapacity = 1000
	// DefaultDebounce is the pause between two receiver drains.
	DefaultDebounce = 20 * time.Millisecond
)

type options struct {
	batchSize          int
	channelCapacity    int
	debounce           time.Duration
	metricsCollector   MetricsCollector
	logger             *Logger
	maxConcurrentLoads int64
	ioLimit            int64
	documentFilter     func(path string) bool
}

// Option configures a ResultSet.
type Option func(*options)

// WithBatchSize sets how many candidates are verified per batch. Values
// below one are ignored.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithChannelCapacity sets how many confirmed results may queue up before
// verification blocks. Values below one are ignored.
func WithChannelCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.channelCapacity = n
		}
	}
}

// WithDebounce sets the pause between drains of the result channel. Each
// drain publishes a single insertion event, so a longer pause means fewer,
// larger notifications. Zero disables the pause.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.debounce = d
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// searches. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &codeindex.BasicMetricsCollector{}
//	rs := codeindex.NewResultSet(spec, indexes, codeindex.WithMetricsCollector(metrics))
//	// ... populate ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for searches.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := codeindex.NewJSONLogger(slog.LevelInfo)
//	rs := codeindex.NewResultSet(spec, indexes, codeindex.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMaxConcurrentLoads caps the number of documents read at the same
// time across all batches. Zero means unlimited.
func WithMaxConcurrentLoads(n int64) Option {
	return func(o *options) {
		o.maxConcurrentLoads = n
	}
}

// WithIOLimit caps document bytes read per second. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithDocumentFilter restricts the search to documents whose path keep
// accepts. The filter is evaluated once per index, before any candidate is
// loaded. See index.GlobFilter.
func WithDocumentFilter(keep func(path string) bool) Option {
	return func(o *options) {
		o.documentFilter = keep
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		batchSize:        DefaultBatchSize,
		channelCapacity:  DefaultChannelCapacity,
		debounce:         DefaultDebounce,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
