// Package metrics provides Prometheus metrics for the website.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceFetchTotal counts outbound WordPress requests by source and status.
	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "website",
			Name:      "source_fetch_total",
			Help:      "Total number of WordPress API requests",
		},
		[]string{"source", "status"},
	)

	// SourceFetchDuration measures outbound WordPress request duration.
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "website",
			Name:      "source_fetch_duration_seconds",
			Help:      "Duration of WordPress API requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// AggregatedPosts observes how many cards an aggregation produced.
	AggregatedPosts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "website",
			Name:      "aggregated_posts",
			Help:      "Distribution of aggregated post counts",
			Buckets:   []float64{0, 5, 10, 25, 50, 100, 200, 300},
		},
	)

	// CacheRequests counts revalidation cache lookups by result.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "website",
			Name:      "cache_requests_total",
			Help:      "Total number of revalidation cache lookups",
		},
		[]string{"result"},
	)

	// FormSubmissions counts form submissions by form type and outcome.
	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "website",
			Name:      "form_submissions_total",
			Help:      "Total number of form submissions",
		},
		[]string{"form_type", "status"},
	)
)

// RecordSourceFetch records one outbound WordPress request.
func RecordSourceFetch(source, status string, duration float64) {
	SourceFetchTotal.WithLabelValues(source, status).Inc()
	SourceFetchDuration.WithLabelValues(source).Observe(duration)
}

// RecordFormSubmission records a form submission outcome.
func RecordFormSubmission(formType, status string) {
	FormSubmissions.WithLabelValues(formType, status).Inc()
}
