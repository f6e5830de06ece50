// Package metrics exposes a Prometheus Collector for the detection,
// campaign, and supervisor pipelines, grounded in the teacher's
// interfaces/http/metrics.go MetricsRegistry idiom (CounterVec/GaugeVec
// per dimension, MustRegister at construction, promhttp.Handler for
// scraping).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates Prometheus metrics for pattern detection,
// campaign tracking, and analysis runs.
type Collector struct {
	PatternsDetected *prometheus.CounterVec
	PatternsRejected *prometheus.CounterVec

	CampaignsByState *prometheus.GaugeVec
	CampaignHeatPct  prometheus.Gauge

	RunsAdmitted *prometheus.CounterVec
	RunsDenied   *prometheus.CounterVec
	RunDuration  *prometheus.HistogramVec

	CircuitBreakerTrips *prometheus.CounterVec
	CircuitBreakerState *prometheus.GaugeVec

	ProviderFallbacks *prometheus.CounterVec
}

// NewCollector builds a Collector and registers its metrics with the
// default Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		PatternsDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wyckvol_patterns_detected_total",
				Help: "Total patterns detected, by kind and symbol",
			},
			[]string{"kind", "symbol"},
		),
		PatternsRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wyckvol_patterns_rejected_total",
				Help: "Total patterns rejected by the session filter or confidence gate, by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		CampaignsByState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wyckvol_campaigns_by_state",
				Help: "Current number of campaigns in each state",
			},
			[]string{"state"},
		),
		CampaignHeatPct: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wyckvol_portfolio_heat_pct",
				Help: "Current portfolio heat as a percentage of account equity",
			},
		),
		RunsAdmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wyckvol_runs_admitted_total",
				Help: "Total analysis runs admitted by the supervisor, by kind",
			},
			[]string{"kind"},
		),
		RunsDenied: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wyckvol_runs_denied_total",
				Help: "Total analysis runs denied admission, by kind and reason",
			},
			[]string{"kind", "reason"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wyckvol_run_duration_seconds",
				Help:    "Duration of completed analysis runs in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"kind", "status"},
		),
		CircuitBreakerTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wyckvol_circuit_breaker_trips_total",
				Help: "Total circuit breaker trips, by breaker name",
			},
			[]string{"name"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wyckvol_circuit_breaker_state",
				Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		ProviderFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wyckvol_provider_fallbacks_total",
				Help: "Total market data provider fallback chain advances, by from/to source",
			},
			[]string{"from", "to"},
		),
	}

	prometheus.MustRegister(
		c.PatternsDetected,
		c.PatternsRejected,
		c.CampaignsByState,
		c.CampaignHeatPct,
		c.RunsAdmitted,
		c.RunsDenied,
		c.RunDuration,
		c.CircuitBreakerTrips,
		c.CircuitBreakerState,
		c.ProviderFallbacks,
	)

	return c
}

// RecordPatternDetected increments the detected-pattern counter.
func (c *Collector) RecordPatternDetected(kind, symbol string) {
	c.PatternsDetected.WithLabelValues(kind, symbol).Inc()
}

// RecordPatternRejected increments the rejected-pattern counter.
func (c *Collector) RecordPatternRejected(kind, reason string) {
	c.PatternsRejected.WithLabelValues(kind, reason).Inc()
}

// SetCampaignsByState overwrites the gauge for a single campaign state.
func (c *Collector) SetCampaignsByState(state string, count int) {
	c.CampaignsByState.WithLabelValues(state).Set(float64(count))
}

// RecordRunAdmitted increments the admitted-run counter for kind.
func (c *Collector) RecordRunAdmitted(kind string) {
	c.RunsAdmitted.WithLabelValues(kind).Inc()
}

// RecordRunDenied increments the denied-run counter for kind/reason.
func (c *Collector) RecordRunDenied(kind, reason string) {
	c.RunsDenied.WithLabelValues(kind, reason).Inc()
}

// ObserveRunDuration records how long a completed run took.
func (c *Collector) ObserveRunDuration(kind, status string, seconds float64) {
	c.RunDuration.WithLabelValues(kind, status).Observe(seconds)
}

// RecordCircuitBreakerTrip increments the trip counter for name and
// sets its state gauge to open (2).
func (c *Collector) RecordCircuitBreakerTrip(name string) {
	c.CircuitBreakerTrips.WithLabelValues(name).Inc()
	c.CircuitBreakerState.WithLabelValues(name).Set(2)
}

// SetCircuitBreakerState records the current state (0=closed,
// 1=half-open, 2=open) for a named breaker.
func (c *Collector) SetCircuitBreakerState(name string, state float64) {
	c.CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordProviderFallback increments the fallback-advance counter.
func (c *Collector) RecordProviderFallback(from, to string) {
	c.ProviderFallbacks.WithLabelValues(from, to).Inc()
}

// Handler returns the promhttp handler serving this process's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.Handler()
}
