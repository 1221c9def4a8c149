// Package metrics defines the Prometheus metrics for account operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the application counters. A nil *Metrics is valid and
// records nothing, so tests and callers that disable metrics can pass nil.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	otpIssued     *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New creates a private registry with Go/process collectors and the
// application counters.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_auth_operations_total",
				Help: "Total number of account operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		otpIssued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_auth_otp_issued_total",
				Help: "Total number of one-time codes issued by purpose",
			},
			[]string{"purpose"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "account_auth_notifications_total",
				Help: "Total number of outbound emails by outcome",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(m.operations, m.otpIssued, m.notifications)
	return m
}

// Operation records the outcome of one account operation.
func (m *Metrics) Operation(name string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.operations.WithLabelValues(name, outcome).Inc()
}

// OTPIssued counts a generated code. purpose is "verify" or "reset".
func (m *Metrics) OTPIssued(purpose string) {
	if m == nil {
		return
	}
	m.otpIssued.WithLabelValues(purpose).Inc()
}

// Notification records whether an outbound email was accepted.
func (m *Metrics) Notification(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
