// Package observability provides structured logging, Prometheus metrics,
// and health checks.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("addr", addr).Info("gateway listening")
//
// Context-aware logging:
//
//	observability.FromContext(ctx).WithError(err).Warn("lookup failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RejectionsTotal.WithLabelValues("/v1/things", "rate_limited").Inc()
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(2 * time.Second)
//	checker.Register("redis", store.Ping)
//	router.Handle("/healthz", checker.Handler())
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/middleware: Admission pipeline that records the metrics
package observability
