// Package metrics defines the Prometheus metrics recorded by the client.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics contains the client's custom collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	GuardDecisions     *prometheus.CounterVec
	SessionResolutions *prometheus.CounterVec
	AuthOperations     *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		GuardDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authdesk_guard_decisions_total",
				Help: "Navigation decisions taken by the route guard",
			},
			[]string{"decision"},
		),
		SessionResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authdesk_session_resolutions_total",
				Help: "Profile resolutions by outcome",
			},
			[]string{"outcome"},
		),
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authdesk_auth_operations_total",
				Help: "Account operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}

	reg.MustRegister(m.GuardDecisions, m.SessionResolutions, m.AuthOperations)
	return m
}

// NewRegistry returns a private registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func (m *Metrics) Decision(decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) Resolution(outcome string) {
	if m == nil {
		return
	}
	m.SessionResolutions.WithLabelValues(outcome).Inc()
}

// Operation records the outcome of an account operation: "ok" when err is
// nil, "error" otherwise.
func (m *Metrics) Operation(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.AuthOperations.WithLabelValues(op, outcome).Inc()
}
