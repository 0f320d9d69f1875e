package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// AuthMetrics records login outcomes and authorization denials.
type AuthMetrics struct {
	logins  *prometheus.CounterVec
	denials *prometheus.CounterVec
}

// NewAuthMetrics registers the auth metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Login attempts by credential source and outcome.",
	}, []string{"source", "outcome"})
	denials := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_denials_total",
		Help: "Authorization denials by rule kind.",
	}, []string{"rule"})
	reg.MustRegister(logins, denials)
	return &AuthMetrics{
		logins:  logins,
		denials: denials,
	}
}

// ObserveLogin records one login attempt. Source is "local" or the provider
// registration id; outcome is "success" or "failure".
func (a *AuthMetrics) ObserveLogin(source string, success bool) {
	if a == nil || a.logins == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	a.logins.WithLabelValues(normalizeLabel(source), outcome).Inc()
}

// ObserveDenial records one authorization denial for the named rule kind.
func (a *AuthMetrics) ObserveDenial(rule string) {
	if a == nil || a.denials == nil {
		return
	}
	a.denials.WithLabelValues(normalizeLabel(rule)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}
