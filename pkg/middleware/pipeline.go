// Package middleware implements the admission pipeline: an ordered chain
// of stages that every inbound request passes through before it reaches a
// business handler. Stages run in a fixed order, each either enriches the
// request context or rejects with a structured envelope, and a rejection
// stops the chain immediately.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/perimeterhq/perimeter/pkg/auth"
	"github.com/perimeterhq/perimeter/pkg/contextkeys"
	"github.com/perimeterhq/perimeter/pkg/httputil"
	"github.com/perimeterhq/perimeter/pkg/observability"
	"github.com/perimeterhq/perimeter/pkg/policy"
	"github.com/perimeterhq/perimeter/pkg/ratelimit"
	"github.com/perimeterhq/perimeter/pkg/tenant"
)

// Pipeline orders the admission stages:
// request ID → authenticate → tenant → rate limit → policy → forward
type Pipeline struct {
	tokens       *auth.Manager
	limiter      *ratelimit.Limiter
	evaluator    *policy.Evaluator
	routes       *RouteTable
	defaultLimit ratelimit.Config
	logger       *observability.Logger
	metrics      *observability.Metrics
}

// NewPipeline assembles the admission pipeline. metrics may be nil.
func NewPipeline(
	tokens *auth.Manager,
	limiter *ratelimit.Limiter,
	evaluator *policy.Evaluator,
	routes *RouteTable,
	defaultLimit ratelimit.Config,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	return &Pipeline{
		tokens:       tokens,
		limiter:      limiter,
		evaluator:    evaluator,
		routes:       routes,
		defaultLimit: defaultLimit,
		logger:       logger,
		metrics:      metrics,
	}
}

// Attach registers the pipeline stages on the router in admission order
func (p *Pipeline) Attach(router *mux.Router) {
	router.Use(
		p.RequestID,
		p.Authenticate,
		p.TenantContext,
		p.RateLimit,
		p.Policy,
		p.Forward,
	)
}

// RequestID assigns or propagates the request ID and resolves the route's
// admission spec into the context for the later stages
func (p *Pipeline) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(tenant.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(tenant.HeaderRequestID, requestID)

		route := ratelimit.RoutePath(r)
		spec := p.routes.Lookup(route)

		ctx := contextkeys.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, contextkeys.RouteSpecKey, spec)
		ctx = observability.WithLogger(ctx, p.logger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Forward is the last stage: it stamps the resolved identity onto the
// request headers so business handlers and proxied upstreams see it, and
// records the admission
func (p *Pipeline) Forward(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tc, ok := tenant.FromContext(r.Context()); ok {
			tc.ApplyHeaders(r.Header)
		}
		if p.metrics != nil {
			p.metrics.AdmissionsTotal.WithLabelValues(ratelimit.RoutePath(r)).Inc()
		}
		next.ServeHTTP(w, r)
	})
}

// specFromContext returns the admission spec resolved by the RequestID
// stage. Falls back to the table default for handlers invoked outside the
// pipeline.
func (p *Pipeline) specFromContext(ctx context.Context) RouteSpec {
	if spec, ok := ctx.Value(contextkeys.RouteSpecKey).(RouteSpec); ok {
		return spec
	}
	return p.routes.Lookup("")
}

// reject short-circuits the chain with the reason's envelope
func (p *Pipeline) reject(w http.ResponseWriter, r *http.Request, reason Reason) {
	if p.metrics != nil {
		p.metrics.RejectionsTotal.WithLabelValues(ratelimit.RoutePath(r), string(reason)).Inc()
	}
	observability.FromContext(r.Context()).WithFields(map[string]interface{}{
		"reason": string(reason),
		"route":  ratelimit.RoutePath(r),
		"method": r.Method,
	}).Info("request rejected")
	httputil.WriteEnvelope(w, reason.Status(), reason.Message())
}
