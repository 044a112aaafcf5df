// Package ratelimit implements distributed fixed-window rate limiting on
// shared Redis counters. Counters are keyed by (client identity, route
// template); the init-or-increment step is a single atomic store round
// trip, so gateway replicas never race each other past the limit.
package ratelimit

import (
	"context"
	"time"

	"github.com/perimeterhq/perimeter/pkg/observability"
	"github.com/perimeterhq/perimeter/pkg/storage"
)

// Config controls one rate window
type Config struct {
	// Limit is the number of requests admitted per window
	Limit int

	// Window is the fixed window length
	Window time.Duration

	// FailOpen admits requests when the counter store is unreachable.
	// Availability over strictness; every degraded admission is logged
	// and counted.
	FailOpen bool
}

// DefaultConfig returns the default limit of 100 requests per minute,
// failing open on store errors
func DefaultConfig() Config {
	return Config{
		Limit:    100,
		Window:   time.Minute,
		FailOpen: true,
	}
}

// Decision is the outcome of one admission check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Duration
	// Degraded marks an admission granted without a counter because the
	// store was unreachable
	Degraded bool
}

// Limiter checks requests against shared fixed-window counters
type Limiter struct {
	store   *storage.Client
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewLimiter creates a limiter on the shared counter store. metrics may be nil.
func NewLimiter(store *storage.Client, logger *observability.Logger, metrics *observability.Metrics) *Limiter {
	return &Limiter{store: store, logger: logger, metrics: metrics}
}

// Admit counts the request against the (clientID, route) window and decides
// admission. On a store error the decision follows cfg.FailOpen; a degraded
// admission never consumes window budget.
func (l *Limiter) Admit(ctx context.Context, clientID, route string, cfg Config) (*Decision, error) {
	key := clientID + ":" + route

	count, allowed, err := l.store.IncrWindow(ctx, key, cfg.Limit, cfg.Window)
	if err != nil {
		if cfg.FailOpen {
			l.logger.WithError(err).WithFields(map[string]interface{}{
				"client": clientID,
				"route":  route,
			}).Warn("rate counter store unreachable, admitting in degraded mode")
			if l.metrics != nil {
				l.metrics.RateLimitDegradedTotal.Inc()
			}
			return &Decision{
				Allowed:   true,
				Limit:     cfg.Limit,
				Remaining: cfg.Limit,
				Degraded:  true,
			}, nil
		}
		return nil, err
	}

	// Best effort: the reset hint is cosmetic, a miss does not affect the decision
	reset, ttlErr := l.store.WindowTTL(ctx, key)
	if ttlErr != nil {
		reset = cfg.Window
	}

	remaining := cfg.Limit - int(count)
	if !allowed || remaining < 0 {
		remaining = 0
	}

	if l.metrics != nil {
		if allowed {
			l.metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
		} else {
			l.metrics.RateLimitDecisionsTotal.WithLabelValues("rejected").Inc()
		}
	}

	return &Decision{
		Allowed:   allowed,
		Limit:     cfg.Limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
