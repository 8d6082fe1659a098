// Package prometheus exports search and build metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc, err := codeprom.NewCollector(reg, "codeindex")
//	rs := codeindex.NewResultSet(spec, indexes, codeindex.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prometheus

import (
	"time"

	"github.com/hupe1980/codeindex"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector implements codeindex.MetricsCollector.
type Collector struct {
	searchLatency *prometheus.HistogramVec
	searchResults prometheus.Counter
	batches       prometheus.Counter
	candidates    prometheus.Counter
	loadFailures  prometheus.Counter
	buildLatency  *prometheus.HistogramVec
	documents     prometheus.Gauge
}

var _ codeindex.MetricsCollector = (*Collector)(nil)

// NewCollector creates the metrics under namespace and registers them.
func NewCollector(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		searchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time to populate a result set.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		searchResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Confirmed matches delivered.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_batches_total",
			Help:      "Candidate batches verified.",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Candidate documents verified.",
		}),
		loadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_load_failures_total",
			Help:      "Candidate documents skipped because they could not be read.",
		}),
		buildLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time to build and write an index.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"status"}),
		documents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indexed_documents",
			Help:      "Documents in the most recently built index.",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.searchLatency, c.searchResults, c.batches, c.candidates,
		c.loadFailures, c.buildLatency, c.documents,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordSearch implements codeindex.MetricsCollector.
func (c *Collector) RecordSearch(results int, duration time.Duration, err error) {
	c.searchLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	c.searchResults.Add(float64(results))
}

// RecordBatch implements codeindex.MetricsCollector.
func (c *Collector) RecordBatch(candidates int, _ time.Duration) {
	c.batches.Inc()
	c.candidates.Add(float64(candidates))
}

// RecordLoadFailure implements codeindex.MetricsCollector.
func (c *Collector) RecordLoadFailure() {
	c.loadFailures.Inc()
}

// RecordBuild implements codeindex.MetricsCollector.
func (c *Collector) RecordBuild(documents int, duration time.Duration, err error) {
	c.buildLatency.WithLabelValues(status(err)).Observe(duration.Seconds())
	if err == nil {
		c.documents.Set(float64(documents))
	}
}
