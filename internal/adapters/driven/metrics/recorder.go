package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/eolscan/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.MetricsRecorder = (*Recorder)(nil)

// Namespace prefixes every metric name.
const Namespace = "eolscan"

// latencyBuckets cover fast cache-backed answers up to the query deadline.
var latencyBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Recorder records engine, cache and orchestrator events as Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	sourceCalls   *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	queries       *prometheus.CounterVec
	queryLatency  prometheus.Histogram
}

// NewRecorder creates a recorder with its own registry. Go runtime and
// process collectors are registered alongside the eolscan metrics.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		sourceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "calls_total",
			Help:      "Lookup source invocations by source and outcome.",
		}, []string{"source", "outcome"}),
		sourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "source",
			Name:      "call_duration_seconds",
			Help:      "Lookup source call latency.",
			Buckets:   latencyBuckets,
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Result cache probes by outcome.",
		}, []string{"outcome"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "query",
			Name:      "resolved_total",
			Help:      "Resolved distinct queries by risk tier and winning strategy.",
		}, []string{"risk", "strategy"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "End-to-end resolution time of a distinct query.",
			Buckets:   latencyBuckets,
		}),
	}

	r.registry.MustRegister(
		r.sourceCalls,
		r.sourceLatency,
		r.cacheLookups,
		r.queries,
		r.queryLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// SourceCall records one lookup source invocation.
func (r *Recorder) SourceCall(sourceID, outcome string, elapsed time.Duration) {
	r.sourceCalls.WithLabelValues(sourceID, outcome).Inc()
	if elapsed > 0 {
		r.sourceLatency.WithLabelValues(sourceID).Observe(elapsed.Seconds())
	}
}

// CacheLookup records a cache probe.
func (r *Recorder) CacheLookup(outcome string) {
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

// QueryResolved records a finished query. An empty strategy means nothing
// was found.
func (r *Recorder) QueryResolved(risk, strategy string, elapsed time.Duration) {
	if strategy == "" {
		strategy = "none"
	}
	r.queries.WithLabelValues(risk, strategy).Inc()
	r.queryLatency.Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
