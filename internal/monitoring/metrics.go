// Package monitoring exposes the Prometheus collectors used across the
// service and the HTTP handler that serves them.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticketVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_verifications_total",
			Help: "Ticket verifications by mode (checkin, validate) and outcome",
		},
		[]string{"mode", "outcome"},
	)

	commissionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commission_lookups_total",
			Help: "Commission percent lookups by source (cache, store, default)",
		},
		[]string{"source"},
	)

	checkInEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkin_events_total",
			Help: "Check-in audit events by stage (published, publish_failed, consumed, rejected)",
		},
		[]string{"stage"},
	)

	verificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_verification_duration_seconds",
			Help:    "Duration of ticket verification including store round trips",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"mode"},
	)
)

// TrackVerification counts one verification attempt.
func TrackVerification(mode, outcome string) {
	ticketVerifications.WithLabelValues(mode, outcome).Inc()
}

// ObserveVerification records how long a verification took.
func ObserveVerification(mode string, seconds float64) {
	verificationDuration.WithLabelValues(mode).Observe(seconds)
}

// TrackCommissionLookup counts where the effective commission came from.
func TrackCommissionLookup(source string) {
	commissionLookups.WithLabelValues(source).Inc()
}

// TrackCheckInEvent counts audit event pipeline stages.
func TrackCheckInEvent(stage string) {
	checkInEvents.WithLabelValues(stage).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
