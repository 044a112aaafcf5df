package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Admission pipeline metrics
	AdmissionsTotal *prometheus.CounterVec
	RejectionsTotal *prometheus.CounterVec

	// Token lifecycle metrics
	TokenOperationsTotal *prometheus.CounterVec

	// Rate limiter metrics
	RateLimitDecisionsTotal *prometheus.CounterVec
	RateLimitDegradedTotal  prometheus.Counter

	// Policy metrics
	PolicyLookupsTotal   *prometheus.CounterVec
	PolicyLookupDuration *prometheus.HistogramVec
	PolicyErrorsTotal    prometheus.Counter

	// Redis metrics
	RedisCommandsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perimeter_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		// Admission pipeline metrics
		AdmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_admissions_total",
				Help: "Total number of requests admitted through the pipeline",
			},
			[]string{"route"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_rejections_total",
				Help: "Total number of requests rejected by the pipeline",
			},
			[]string{"route", "reason"},
		),
		// Token lifecycle metrics
		TokenOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_token_operations_total",
				Help: "Total number of token lifecycle operations",
			},
			[]string{"operation", "outcome"},
		),

		// Rate limiter metrics
		RateLimitDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_ratelimit_decisions_total",
				Help: "Total number of rate limit decisions",
			},
			[]string{"decision"},
		),
		RateLimitDegradedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perimeter_ratelimit_degraded_total",
				Help: "Number of requests admitted in degraded mode due to counter store errors",
			},
		),

		// Policy metrics
		PolicyLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_policy_lookups_total",
				Help: "Total number of remote policy lookups",
			},
			[]string{"kind", "result"},
		),
		PolicyLookupDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perimeter_policy_lookup_duration_seconds",
				Help:    "Remote policy lookup duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"kind"},
		),
		PolicyErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "perimeter_policy_errors_total",
				Help: "Total number of failed remote policy lookups",
			},
		),

		// Redis metrics
		RedisCommandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perimeter_redis_commands_total",
				Help: "Total number of Redis commands",
			},
			[]string{"command", "status"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AdmissionsTotal,
		m.RejectionsTotal,
		m.TokenOperationsTotal,
		m.RateLimitDecisionsTotal,
		m.RateLimitDegradedTotal,
		m.PolicyLookupsTotal,
		m.PolicyLookupDuration,
		m.PolicyErrorsTotal,
		m.RedisCommandsTotal,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the handler serving the /metrics endpoint
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
