// Package metrics holds the process's Prometheus collectors.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "contact_sessions_active",
		Help: "Number of currently connected game sessions",
	})

	RoomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "contact_rooms_active",
		Help: "Number of rooms currently tracked in memory",
	})

	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_actions_total",
			Help: "Total game actions performed, by event",
		},
		[]string{"event"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_errors_total",
			Help: "Total player-facing game errors, by kind",
		},
		[]string{"kind"},
	)

	// RateLimit* track the per-player action limiter's request,
	// block, and store-error counts, labeled by game event.
	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_rate_limit_requests_total",
			Help: "Total actions seen by the per-player rate limiter, by event",
		},
		[]string{"event"},
	)

	RateLimitBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_rate_limit_blocked_total",
			Help: "Total actions blocked by the per-player rate limiter, by event",
		},
		[]string{"event"},
	)

	RateLimitErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_rate_limit_errors_total",
			Help: "Total rate limiter store errors, by event (fails open)",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsActive, RoomsActive, ActionsTotal, ErrorsTotal,
		RateLimitRequestsTotal, RateLimitBlockedTotal, RateLimitErrorsTotal,
	)
}
