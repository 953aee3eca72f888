// Package metrics records per-run counters for a digest in a private
// Prometheus registry and writes them out in the text exposition format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spiffcs/recap/internal/activity"
	"github.com/spiffcs/recap/internal/ghclient"
)

const namespace = "recap"

// Recorder owns the registry and collectors for one run.
type Recorder struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	searchRequests prometheus.Counter
	searchPages    *prometheus.CounterVec
	records        *prometheus.CounterVec
	itemErrors     *prometheus.CounterVec
	walkWarnings   *prometheus.CounterVec
	quotaRemaining *prometheus.GaugeVec
	runDuration    prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "GitHub API requests by status code and method.",
		}, []string{"code", "method"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "GitHub API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{}),
		searchRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search pages requested across all walks.",
		}),
		searchPages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_pages_total",
			Help:      "Search pages consumed per walk.",
		}, []string{"source"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_records_total",
			Help:      "Activity records produced per walk.",
		}, []string{"source"}),
		itemErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_fetch_errors_total",
			Help:      "Items whose detail fetch failed, per walk.",
		}, []string{"source"}),
		walkWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "walk_warnings_total",
			Help:      "Walks that stopped early on a failed page.",
		}, []string{"source"}),
		quotaRemaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_remaining",
			Help:      "Remaining requests per rate limit resource at preflight.",
		}, []string{"resource"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collect_duration_seconds",
			Help:      "Wall time of the collection phase.",
		}),
	}

	r.registry.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.searchRequests,
		r.searchPages,
		r.records,
		r.itemErrors,
		r.walkWarnings,
		r.quotaRemaining,
		r.runDuration,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// InstrumentTransport wraps next so every request is counted and timed.
// It matches the signature expected by ghclient.WithTransportWrapper.
func (r *Recorder) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(r.httpRequests,
		promhttp.InstrumentRoundTripperDuration(r.httpDuration, next))
}

// RecordQuota stores the preflight budgets.
func (r *Recorder) RecordQuota(q *ghclient.Quota) {
	if q == nil {
		return
	}
	r.quotaRemaining.WithLabelValues("core").Set(float64(q.Core.Remaining))
	r.quotaRemaining.WithLabelValues("search").Set(float64(q.Search.Remaining))
	r.quotaRemaining.WithLabelValues("graphql").Set(float64(q.GraphQL.Remaining))
}

// RecordRun stores the outcome of a collection run.
func (r *Recorder) RecordRun(res *activity.Result, elapsed time.Duration) {
	r.runDuration.Set(elapsed.Seconds())
	if res == nil {
		return
	}
	r.searchRequests.Add(float64(res.SearchRequests))
	for _, w := range res.Walks {
		source := string(w.Source)
		r.searchPages.WithLabelValues(source).Add(float64(w.Pages))
		r.records.WithLabelValues(source).Add(float64(w.Records))
		r.itemErrors.WithLabelValues(source).Add(float64(w.Errors))
		if w.Warning != nil {
			r.walkWarnings.WithLabelValues(source).Inc()
		}
	}
}

// WriteFile writes all metrics to path in the text exposition format,
// suitable for the node exporter textfile collector.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
