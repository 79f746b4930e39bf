package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the probe collectors. Provider call outcomes themselves are already
// counted by the aggregator; these add the per-run view.
type Metrics struct {
	// RunsTotal counts probe runs by status: success, partial or failure.
	RunsTotal *prometheus.CounterVec
	// RunDuration measures one whole run across the watchlist.
	RunDuration prometheus.Histogram
	// LastSuccess is the Unix time of the last run in which every query got articles.
	LastSuccess prometheus.Gauge
	// ProviderUp is 1 when the provider answered every query of the last run.
	ProviderUp *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newshub",
			Subsystem: "probe",
			Name:      "runs_total",
			Help:      "Probe runs by status (success, partial, failure)",
		}, []string{"status"}),

		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "newshub",
			Subsystem: "probe",
			Name:      "run_duration_seconds",
			Help:      "Duration of one probe run over the whole watchlist",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),

		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "newshub",
			Subsystem: "probe",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last fully successful probe run",
		}),

		ProviderUp: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "newshub",
			Subsystem: "probe",
			Name:      "provider_up",
			Help:      "1 if the provider answered every query of the last probe run",
		}, []string{"provider"}),
	}
}
