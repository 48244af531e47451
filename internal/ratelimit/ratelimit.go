// Package ratelimit is a fixed-window limiter over store.Store's Incr
// primitive, used to throttle per-player game actions.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"contactgame/internal/metrics"
	"contactgame/internal/store"
)

// Limiter enforces a max-per-window count against arbitrary string
// scopes (e.g. "offer:alice").
type Limiter struct {
	st store.Store
}

func New(st store.Store) *Limiter {
	return &Limiter{st: st}
}

// Allow reports whether username is still within max occurrences of
// event per window, bumping its counter regardless of the outcome. A
// store error fails open: the action is allowed through rather than
// blocked on a broken limiter.
func (l *Limiter) Allow(ctx context.Context, username, event string, max int, window time.Duration) bool {
	key := fmt.Sprintf("rl:%s:%s", event, username)
	n, err := l.st.Incr(ctx, key, window)
	if err != nil {
		metrics.RateLimitErrorsTotal.WithLabelValues(event).Inc()
		return true
	}

	metrics.RateLimitRequestsTotal.WithLabelValues(event).Inc()
	if n > int64(max) {
		metrics.RateLimitBlockedTotal.WithLabelValues(event).Inc()
		return false
	}
	return true
}
