// Package metrics holds the Prometheus collectors of the analysis service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "autonotes_analyses_total",
			Help: "Total number of texts analysed",
		},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autonotes_fallbacks_total",
			Help: "Number of times a component used its fallback output",
		},
		[]string{"component", "reason"},
	)

	analysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autonotes_analysis_duration_seconds",
			Help:    "Time taken by each analysis component",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"component"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autonotes_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "autonotes_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	pageFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "autonotes_page_fetches_total",
			Help: "Remote page fetches by outcome",
		},
		[]string{"outcome"},
	)
)

// RecordAnalysis counts one analysed text
func RecordAnalysis() {
	analysesTotal.Inc()
}

// RecordFallback counts a component falling back, labelled by the reason
func RecordFallback(component, reason string) {
	fallbacksTotal.WithLabelValues(component, reason).Inc()
}

// ObserveComponent records how long a component took
func ObserveComponent(component string, d time.Duration) {
	analysisDuration.WithLabelValues(component).Observe(d.Seconds())
}

// ObserveRequest records one served HTTP request
func ObserveRequest(method, path, status string, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

// RecordPageFetch counts a page fetch outcome (ok, invalid, blocked, forbidden, failed)
func RecordPageFetch(outcome string) {
	pageFetchesTotal.WithLabelValues(outcome).Inc()
}
