package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// AccessChecks counts role-gate evaluations and their outcome (allow|deny).
	AccessChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_access_checks_total",
			Help: "Total number of role gate checks",
		},
		[]string{"action", "result"},
	)

	// ActiveSessions tracks active admin sessions (not expired).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "guestlist_active_sessions",
			Help: "Number of active admin sessions",
		},
	)

	// EmailsSent counts campaign emails by kind (confirmation|reminder|re-invitation) and result.
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_emails_sent_total",
			Help: "Total number of campaign emails attempted",
		},
		[]string{"kind", "result"},
	)

	// RSVPSubmissions counts public RSVP submissions by attendance answer.
	RSVPSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guestlist_rsvp_submissions_total",
			Help: "Total number of guest RSVP submissions",
		},
		[]string{"attending"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guestlist_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
