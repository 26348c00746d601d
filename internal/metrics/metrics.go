package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeSuccess labels phases that completed without a failure code.
const OutcomeSuccess = "success"

// Metrics holds the Prometheus metrics for the SSO flow
type Metrics struct {
	RequestPhase     *prometheus.CounterVec
	CallbackPhase    *prometheus.CounterVec
	CallbackDuration prometheus.Histogram
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestPhase: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workos_sso_request_phase_total",
			Help: "Authorize redirects by outcome (success or failure code)",
		}, []string{"outcome"}),
		CallbackPhase: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "workos_sso_callback_phase_total",
			Help: "Broker callbacks by outcome (success or failure code)",
		}, []string{"outcome"}),
		CallbackDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "workos_sso_callback_duration_seconds",
			Help:    "Time spent handling a broker callback, token exchange included",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveRequestPhase counts one authorize attempt.
func (m *Metrics) ObserveRequestPhase(outcome string) {
	m.RequestPhase.WithLabelValues(outcome).Inc()
}

// ObserveCallbackPhase counts one callback and records its duration.
func (m *Metrics) ObserveCallbackPhase(outcome string, took time.Duration) {
	m.CallbackPhase.WithLabelValues(outcome).Inc()
	m.CallbackDuration.Observe(took.Seconds())
}
