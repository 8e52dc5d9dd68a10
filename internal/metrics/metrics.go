package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Label values for catalog refresh outcomes.
const (
	RefreshSuccess   = "success"
	RefreshTransport = "transport_error"
	RefreshRejected  = "rejected"
)

// Label values for consistency run outcomes.
const (
	ConsistencyOK       = "ok"
	ConsistencyNoRouted = "no_routed_result"
)

// Metrics is the instrument set shared by the probe services. Collectors are
// registered on construction, so tests pass a fresh registry to stay
// isolated from each other.
type Metrics struct {
	probeCycles      *prometheus.CounterVec
	probeDuration    prometheus.Histogram
	catalogRefreshes *prometheus.CounterVec
	consistencyRuns  *prometheus.CounterVec
	samplerAttempts  prometheus.Histogram
}

// New creates the collector set and registers it on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		probeCycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eidaqc_probe_cycles_total",
				Help: "Completed availability probe cycles by resulting status code.",
			},
			[]string{"status"},
		),
		probeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eidaqc_probe_duration_seconds",
				Help:    "Wall time of one availability probe cycle.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		catalogRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eidaqc_catalog_refreshes_total",
				Help: "Station catalog refresh attempts by outcome.",
			},
			[]string{"outcome"},
		),
		consistencyRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eidaqc_consistency_runs_total",
				Help: "Inventory consistency runs by outcome.",
			},
			[]string{"outcome"},
		),
		samplerAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eidaqc_sampler_attempts",
				Help:    "Draws needed until the station sampler accepted a candidate.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
	}

	reg.MustRegister(
		m.probeCycles,
		m.probeDuration,
		m.catalogRefreshes,
		m.consistencyRuns,
		m.samplerAttempts,
	)

	return m
}

// ObserveProbe records one completed probe cycle and its duration.
func (m *Metrics) ObserveProbe(status string, seconds float64) {
	m.probeCycles.WithLabelValues(status).Inc()
	m.probeDuration.Observe(seconds)
}

// ObserveCatalogRefresh records the outcome of one catalog refresh attempt.
func (m *Metrics) ObserveCatalogRefresh(outcome string) {
	m.catalogRefreshes.WithLabelValues(outcome).Inc()
}

// ObserveConsistencyRun records the outcome of one consistency run.
func (m *Metrics) ObserveConsistencyRun(outcome string) {
	m.consistencyRuns.WithLabelValues(outcome).Inc()
}

// ObserveSamplerAttempts records how many draws a station selection took.
func (m *Metrics) ObserveSamplerAttempts(attempts int) {
	m.samplerAttempts.Observe(float64(attempts))
}
