package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	tokenVerifications *prometheus.CounterVec
	loginAttempts      *prometheus.CounterVec
	accessDecisions    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them, together with the
// Go and process collectors, on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tokenVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terrace_token_verifications_total",
				Help: "Total number of token verifications by outcome",
			},
			[]string{"outcome"},
		),
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terrace_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		accessDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "terrace_access_decisions_total",
				Help: "Total number of access policy decisions by decision",
			},
			[]string{"decision"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tokenVerifications,
		m.loginAttempts,
		m.accessDecisions,
	)
	return m
}

// TokenVerified counts a verification outcome.
func (m *Metrics) TokenVerified(outcome string) {
	if m == nil {
		return
	}
	m.tokenVerifications.WithLabelValues(outcome).Inc()
}

// LoginAttempted counts a login result.
func (m *Metrics) LoginAttempted(result string) {
	if m == nil {
		return
	}
	m.loginAttempts.WithLabelValues(result).Inc()
}

// AccessDecided counts an access policy decision.
func (m *Metrics) AccessDecided(decision string) {
	if m == nil {
		return
	}
	m.accessDecisions.WithLabelValues(decision).Inc()
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
