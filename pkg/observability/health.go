package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes a single dependency and returns an error when unhealthy
type CheckFunc func(ctx context.Context) error

// HealthChecker aggregates named dependency checks behind a single handler
type HealthChecker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthChecker creates a checker with a per-check timeout
func NewHealthChecker(timeout time.Duration) *HealthChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthChecker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
	}
}

// Register adds a named dependency check
func (h *HealthChecker) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the health endpoint: 200 when all checks pass, 503 otherwise
func (h *HealthChecker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()

		h.mu.RLock()
		checks := make(map[string]CheckFunc, len(h.checks))
		for name, check := range h.checks {
			checks[name] = check
		}
		h.mu.RUnlock()

		status := healthStatus{
			Status: "healthy",
			Checks: make(map[string]string, len(checks)),
		}
		code := http.StatusOK

		for name, check := range checks {
			if err := check(ctx); err != nil {
				status.Status = "unhealthy"
				status.Checks[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status.Checks[name] = "ok"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
}
