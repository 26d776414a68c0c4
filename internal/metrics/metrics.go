// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AccountAPIRequests counts outbound account API calls.
	// Labels:
	//   - operation: authenticate, create_account, resolve_identity, attach_genres
	//   - outcome: success, rejected, unavailable
	AccountAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemania_account_api_requests_total",
			Help: "Total number of account API requests",
		},
		[]string{"operation", "outcome"},
	)

	AccountAPIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviemania_account_api_duration_seconds",
			Help:    "Duration of account API requests in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moviemania_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// LoginAttempts counts interactive logins by outcome.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemania_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	// RegistrationOutcomes counts registrations by the stage they stopped at.
	// stage is "validation", "account_created", "logged_in" or "genres_attached";
	// outcome is "success" or "failure".
	RegistrationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemania_registrations_total",
			Help: "Total number of registration attempts by stage and outcome",
		},
		[]string{"stage", "outcome"},
	)

	IdentityLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemania_identity_lookups_total",
			Help: "Identity resolutions that needed an account API lookup",
		},
		[]string{"outcome"},
	)

	RatingsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviemania_ratings_saved_total",
			Help: "Total number of ratings written",
		},
	)

	RatingEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviemania_rating_events_total",
			Help: "Rating events handed to the message broker",
		},
		[]string{"outcome"},
	)
)
