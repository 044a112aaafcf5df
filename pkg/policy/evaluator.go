// Package policy evaluates route access requirements against a remote
// grant service. Evaluation is stateless and fails closed: a code whose
// lookup errors counts as not granted.
package policy

import (
	"context"
	"time"

	"github.com/perimeterhq/perimeter/pkg/observability"
)

// Client looks up a single grant for a user. Implemented by HTTPClient
// against the remote policy service.
type Client interface {
	HasPermission(ctx context.Context, userID, code string) (bool, error)
	HasRole(ctx context.Context, userID, code string) (bool, error)
}

// Evaluator combines per-code lookups under a requirement's logic
type Evaluator struct {
	client  Client
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewEvaluator creates an evaluator. metrics may be nil.
func NewEvaluator(client Client, logger *observability.Logger, metrics *observability.Metrics) *Evaluator {
	return &Evaluator{client: client, logger: logger, metrics: metrics}
}

// Check reports whether the user satisfies the requirement. An empty
// requirement always passes. Evaluation short-circuits: AND stops at the
// first miss, OR stops at the first hit.
func (e *Evaluator) Check(ctx context.Context, userID string, req Requirement) bool {
	if req.Empty() {
		return true
	}

	for _, code := range req.Codes {
		granted := e.lookup(ctx, userID, code, req.Kind)
		switch req.Logic {
		case LogicOr:
			if granted {
				return true
			}
		default:
			// AND semantics unless OR was requested explicitly
			if !granted {
				return false
			}
		}
	}

	return req.Logic != LogicOr
}

func (e *Evaluator) lookup(ctx context.Context, userID, code string, kind Kind) bool {
	start := time.Now()

	var granted bool
	var err error
	switch kind {
	case KindRole:
		granted, err = e.client.HasRole(ctx, userID, code)
	default:
		granted, err = e.client.HasPermission(ctx, userID, code)
	}

	if e.metrics != nil {
		e.metrics.PolicyLookupDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		e.logger.WithError(err).WithFields(map[string]interface{}{
			"user_id": userID,
			"code":    code,
			"kind":    string(kind),
		}).Warn("policy lookup failed, treating as not granted")
		if e.metrics != nil {
			e.metrics.PolicyErrorsTotal.Inc()
			e.metrics.PolicyLookupsTotal.WithLabelValues(string(kind), "error").Inc()
		}
		return false
	}

	if e.metrics != nil {
		result := "denied"
		if granted {
			result = "granted"
		}
		e.metrics.PolicyLookupsTotal.WithLabelValues(string(kind), result).Inc()
	}

	return granted
}
