// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Signups counts signup attempts by outcome: created, invalid, error.
	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psup_signups_total",
		Help: "Signup attempts by outcome.",
	}, []string{"outcome"})

	// Confirmations counts confirmation link visits by result.
	Confirmations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psup_confirmations_total",
		Help: "Email confirmation attempts by result.",
	}, []string{"result"})

	// ConfirmationEmails counts confirmation emails by status: sent, failed.
	ConfirmationEmails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psup_confirmation_emails_total",
		Help: "Confirmation emails by delivery status.",
	}, []string{"status"})

	// Logins counts login attempts by outcome: ok, invalid, error.
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psup_logins_total",
		Help: "Login attempts by outcome.",
	}, []string{"outcome"})

	RolloverDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "psup_rollover_duration_seconds",
		Help:    "Duration of session rollover runs.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	})

	// RolloverUsers counts principals handled by rollover runs by result: renamed, repaired, skipped, failed.
	RolloverUsers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "psup_rollover_users_total",
		Help: "Principals processed by session rollover by result.",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "psup_http_request_duration_seconds",
		Help:    "HTTP request latency by route and status code.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
