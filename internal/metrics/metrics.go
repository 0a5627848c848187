// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "salesreport"

// Metrics groups the collectors. A nil *Metrics accepts every observation
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RecordsIngested  *prometheus.CounterVec
	RecordsRejected  *prometheus.CounterVec
	ReportsGenerated *prometheus.CounterVec
	ReportDuration   prometheus.Histogram
	ReportCacheHits  prometheus.Counter
}

// New registers the collectors on a fresh registry together with the Go and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RecordsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Sale records appended to the store.",
		}, []string{"source"}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Sale records rejected at ingestion.",
		}, []string{"source"}),
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_generated_total",
			Help:      "Reports generated, by forecast mode and outcome.",
		}, []string{"mode", "outcome"}),
		ReportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_generation_seconds",
			Help:      "Time spent computing a report.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		ReportCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_hits_total",
			Help:      "Reports served from the Redis cache.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RecordsIngested,
		m.RecordsRejected,
		m.ReportsGenerated,
		m.ReportDuration,
		m.ReportCacheHits,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveIngested(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsIngested.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) ObserveRejected(source string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.RecordsRejected.WithLabelValues(source).Add(float64(n))
}

// ObserveReport records one generation attempt.
func (m *Metrics) ObserveReport(mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(mode, outcome).Inc()
	m.ReportDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.ReportCacheHits.Inc()
}
