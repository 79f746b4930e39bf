// Package metrics holds the Prometheus collectors of the aggregator and small
// Record* helpers so call sites never touch label plumbing.
//
// All collectors register with the default registry through promauto and are
// exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newshub"

// HTTP metrics track API request patterns and performance.
var (
	// HTTPRequestsTotal counts API requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures API request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Provider metrics track every upstream news API call.
var (
	// ProviderRequestsTotal counts provider calls by outcome: success or the error code.
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider calls by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderRequestDuration measures one provider call, retries included.
	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider call duration in seconds, retries included",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"provider"},
	)

	// ProviderRetriesTotal counts retry attempts per provider.
	ProviderRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_retries_total",
			Help:      "Retry attempts per provider",
		},
		[]string{"provider"},
	)

	// ProviderRecordsSkippedTotal counts upstream records dropped during normalization.
	ProviderRecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_records_skipped_total",
			Help:      "Upstream records dropped during normalization",
		},
		[]string{"provider", "reason"},
	)
)

// Aggregation metrics describe merged results.
var (
	// AggregateArticles observes the size of each merged article list.
	AggregateArticles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_articles",
			Help:      "Articles per merged result",
			Buckets:   prometheus.LinearBuckets(0, 25, 9),
		},
	)

	// AggregateDuplicatesTotal counts articles dropped as cross-source duplicates.
	AggregateDuplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_duplicates_total",
			Help:      "Articles dropped as duplicates during merge",
		},
	)

	// AggregateTotalFailuresTotal counts aggregations where every provider failed.
	AggregateTotalFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_total_failures_total",
			Help:      "Aggregations in which every provider failed",
		},
	)
)
