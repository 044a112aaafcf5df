// Package api wires the router: lifecycle endpoints, the admission
// pipeline, health and metrics, and registration of proxied business routes.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/perimeterhq/perimeter/pkg/auth"
	"github.com/perimeterhq/perimeter/pkg/config"
	"github.com/perimeterhq/perimeter/pkg/directory"
	"github.com/perimeterhq/perimeter/pkg/httputil"
	"github.com/perimeterhq/perimeter/pkg/middleware"
	"github.com/perimeterhq/perimeter/pkg/observability"
	"github.com/perimeterhq/perimeter/pkg/policy"
	"github.com/perimeterhq/perimeter/pkg/ratelimit"
	"github.com/perimeterhq/perimeter/pkg/storage"
)

// Dependencies are the collaborators the server needs. Metrics and
// Registry may be nil when metrics are disabled.
type Dependencies struct {
	Tokens    *auth.Manager
	Users     directory.Service
	Evaluator *policy.Evaluator
	Limiter   *ratelimit.Limiter
	Store     *storage.Client
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Registry  *prometheus.Registry
}

// Server is the gateway HTTP server
type Server struct {
	cfg        *config.Config
	deps       Dependencies
	router     *mux.Router
	routes     *middleware.RouteTable
	httpServer *http.Server
}

// NewServer builds the router and admission pipeline
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	router := mux.NewRouter()
	routes := middleware.NewRouteTable()

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		router: router,
		routes: routes,
	}

	authHandlers := NewAuthHandlers(deps.Tokens, deps.Users, deps.Logger)
	authHandlers.RegisterRoutes(router)

	// Login and refresh must be reachable without a credential. Logout is
	// public too so revocation stays idempotent: a second logout with an
	// already-revoked credential would otherwise be rejected before the
	// handler runs.
	routes.Set("/v1/auth/login", middleware.RouteSpec{Public: true})
	routes.Set("/v1/auth/refresh", middleware.RouteSpec{Public: true})
	routes.Set("/v1/auth/logout", middleware.RouteSpec{Public: true})
	routes.Set("/v1/me", middleware.RouteSpec{TenantRequired: true})

	health := observability.NewHealthChecker(2 * time.Second)
	if deps.Store != nil {
		health.Register("redis", deps.Store.Ping)
	}
	router.Handle("/healthz", health.Handler()).Methods("GET")
	routes.Set("/healthz", middleware.RouteSpec{Public: true})

	if deps.Registry != nil {
		router.Handle("/metrics", observability.MetricsHandler(deps.Registry)).Methods("GET")
		routes.Set("/metrics", middleware.RouteSpec{Public: true})
	}

	pipeline := middleware.NewPipeline(
		deps.Tokens, deps.Limiter, deps.Evaluator,
		routes, cfg.RateLimit, deps.Logger, deps.Metrics,
	)
	pipeline.Attach(router)

	outer := []func(http.Handler) http.Handler{httputil.RecoveryMiddleware}
	if deps.Metrics != nil {
		outer = append(outer, observability.HTTPMetricsMiddleware(deps.Metrics))
	}
	handler := httputil.Chain(outer...)(router)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// Handle registers a business route behind the admission pipeline
func (s *Server) Handle(method, path string, handler http.Handler, spec middleware.RouteSpec) {
	s.router.Handle(path, handler).Methods(method)
	s.routes.Set(path, spec)
}

// Handler exposes the fully assembled handler, primarily for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving and blocks until the listener closes
func (s *Server) Start() error {
	s.deps.Logger.WithField("addr", s.cfg.Server.Addr()).Info("gateway listening")
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
