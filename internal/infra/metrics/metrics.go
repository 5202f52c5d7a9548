// Package metrics holds the Prometheus instruments of the auth service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the auth counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edusmart_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "edusmart_http_request_duration_seconds",
		Help:    "Histogram of HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edusmart_auth_registrations_total",
		Help: "Total number of registration attempts by outcome",
	}, []string{"outcome"})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edusmart_auth_logins_total",
		Help: "Total number of login attempts by outcome",
	}, []string{"outcome"})

	resetRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edusmart_password_reset_requests_total",
		Help: "Total number of password reset requests by outcome",
	}, []string{"outcome"})

	resetsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edusmart_password_resets_total",
		Help: "Total number of password reset attempts by outcome",
	}, []string{"outcome"})

	mailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edusmart_mail_worker_deliveries_total",
		Help: "Total number of pushed reset notifications handled by the mail worker by outcome",
	}, []string{"outcome"})

	resetTokensPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "edusmart_password_reset_tokens_purged_total",
		Help: "Total number of expired reset tokens cleared",
	})
)

// RecordHTTPRequest records one served request. route is the router template, never the raw path.
func RecordHTTPRequest(method, route string, status int, latency time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// RecordRegistration counts a registration attempt.
func RecordRegistration(outcome string) {
	registrations.WithLabelValues(outcome).Inc()
}

// RecordLogin counts a login attempt.
func RecordLogin(outcome string) {
	logins.WithLabelValues(outcome).Inc()
}

// RecordResetRequest counts a password reset request.
func RecordResetRequest(outcome string) {
	resetRequests.WithLabelValues(outcome).Inc()
}

// RecordResetConsumed counts an attempt to consume a reset token.
func RecordResetConsumed(outcome string) {
	resetsConsumed.WithLabelValues(outcome).Inc()
}

// RecordResetTokensPurged adds the number of cleared expired tokens.
func RecordResetTokensPurged(n int64) {
	if n > 0 {
		resetTokensPurged.Add(float64(n))
	}
}

// RecordMailDelivery counts a push handled by the mail worker.
func RecordMailDelivery(outcome string) {
	mailDeliveries.WithLabelValues(outcome).Inc()
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
