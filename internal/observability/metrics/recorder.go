package metrics

import (
	"strconv"
	"time"
)

// OutcomeSuccess is the outcome label of a provider call that returned articles.
const OutcomeSuccess = "success"

// RecordHTTPRequest records one served API request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordProviderCall records the outcome of one provider call.
// outcome is OutcomeSuccess or the SourceError code.
func RecordProviderCall(provider, outcome string, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordProviderRetry records one retry attempt against provider.
func RecordProviderRetry(provider string) {
	ProviderRetriesTotal.WithLabelValues(provider).Inc()
}

// RecordSkippedRecord records an upstream record dropped for reason.
func RecordSkippedRecord(provider, reason string) {
	ProviderRecordsSkippedTotal.WithLabelValues(provider, reason).Inc()
}

// RecordAggregation records the size of a merged result and how many duplicates it dropped.
func RecordAggregation(articles, duplicates int, totalFailure bool) {
	AggregateArticles.Observe(float64(articles))
	if duplicates > 0 {
		AggregateDuplicatesTotal.Add(float64(duplicates))
	}
	if totalFailure {
		AggregateTotalFailuresTotal.Inc()
	}
}
