package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors for the admin client
type Metrics struct {
	apiRequestsTotal   *prometheus.CounterVec
	apiErrorsTotal     *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	deletesTotal       *prometheus.CounterVec
	watchEventsTotal   prometheus.Counter
	watchConnected     prometheus.Gauge
}

// NewMetrics creates and registers all collectors with the given registry
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cep_api_requests_total",
				Help: "Total number of CEP API requests by entity, method and outcome",
			},
			[]string{"entity", "method", "outcome"},
		),
		apiErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cep_api_errors_total",
				Help: "Total number of failed CEP API requests by entity",
			},
			[]string{"entity"},
		),
		apiRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cep_api_request_duration_seconds",
				Help:    "CEP API request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"entity", "method"},
		),
		deletesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cep_deletes_total",
				Help: "Total number of entity deletions by outcome",
			},
			[]string{"outcome"},
		),
		watchEventsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cep_watch_events_total",
				Help: "Total number of event log entries observed by watch",
			},
		),
		watchConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cep_watch_connected",
				Help: "Whether the last watch poll reached the backend (1) or not (0)",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.apiRequestsTotal,
		m.apiErrorsTotal,
		m.apiRequestDuration,
		m.deletesTotal,
		m.watchEventsTotal,
		m.watchConnected,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// IncAPIRequest records a completed API request
func (m *Metrics) IncAPIRequest(entity, method, outcome string) {
	m.apiRequestsTotal.WithLabelValues(entity, method, outcome).Inc()
}

// IncAPIError records a failed API request
func (m *Metrics) IncAPIError(entity string) {
	m.apiErrorsTotal.WithLabelValues(entity).Inc()
}

// ObserveAPIRequestDuration records the latency of an API request
func (m *Metrics) ObserveAPIRequestDuration(entity, method string, seconds float64) {
	m.apiRequestDuration.WithLabelValues(entity, method).Observe(seconds)
}

// IncDeletes records deletion outcomes
func (m *Metrics) IncDeletes(outcome string) {
	m.deletesTotal.WithLabelValues(outcome).Inc()
}

// IncWatchEvents records observed event log entries
func (m *Metrics) IncWatchEvents(n int) {
	m.watchEventsTotal.Add(float64(n))
}

// SetWatchConnected records backend reachability of the watch loop
func (m *Metrics) SetWatchConnected(connected bool) {
	if connected {
		m.watchConnected.Set(1)
	} else {
		m.watchConnected.Set(0)
	}
}
