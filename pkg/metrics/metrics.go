// Package metrics exposes snapshot refresh instrumentation to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh outcomes
const (
	OutcomePublished = "published"
	OutcomeStale     = "stale"
	OutcomeCanceled  = "canceled"
)

// Recorder collects refresh metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry        *prometheus.Registry
	refreshDuration prometheus.Histogram
	refreshes       *prometheus.CounterVec
	fetchErrors     *prometheus.CounterVec
	generation      prometheus.Gauge
	actionWrites    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ramohub",
			Name:      "refresh_duration_seconds",
			Help:      "Time spent fetching and hydrating one snapshot.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ramohub",
			Name:      "refreshes_total",
			Help:      "Completed refreshes by outcome.",
		}, []string{"outcome"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ramohub",
			Name:      "fetch_errors_total",
			Help:      "Table reads that failed and were replaced by an empty collection.",
		}, []string{"table"}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ramohub",
			Name:      "snapshot_generation",
			Help:      "Generation of the currently published snapshot.",
		}),
		actionWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ramohub",
			Name:      "action_writes_total",
			Help:      "Remote writes issued by actions, by action and result.",
		}, []string{"action", "result"}),
	}
	r.registry.MustRegister(
		r.refreshDuration,
		r.refreshes,
		r.fetchErrors,
		r.generation,
		r.actionWrites,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveRefresh records one finished refresh
func (r *Recorder) ObserveRefresh(d time.Duration, outcome string) {
	if r == nil {
		return
	}
	r.refreshDuration.Observe(d.Seconds())
	r.refreshes.WithLabelValues(outcome).Inc()
}

// FetchError counts a failed table read
func (r *Recorder) FetchError(table string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(table).Inc()
}

// Published sets the generation gauge
func (r *Recorder) Published(generation uint64) {
	if r == nil {
		return
	}
	r.generation.Set(float64(generation))
}

// ActionWrite counts an action's remote write
func (r *Recorder) ActionWrite(action string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.actionWrites.WithLabelValues(action, result).Inc()
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
