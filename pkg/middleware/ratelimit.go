package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/perimeterhq/perimeter/pkg/ratelimit"
)

// RateLimit counts the request against its (client, route) window and
// rejects with 429 when the window is exhausted. Emits the standard
// X-RateLimit headers on every counted response.
func (p *Pipeline) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spec := p.specFromContext(r.Context())
		if spec.Public {
			next.ServeHTTP(w, r)
			return
		}

		cfg := p.defaultLimit
		if spec.RateLimit != nil {
			cfg = *spec.RateLimit
		}
		if cfg.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientID := ratelimit.ClientIdentity(r)
		route := ratelimit.RoutePath(r)

		decision, err := p.limiter.Admit(r.Context(), clientID, route, cfg)
		if err != nil {
			// Only reachable with FailOpen disabled
			p.reject(w, r, ReasonUpstreamUnavailable)
			return
		}

		if !decision.Degraded {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(decision.Reset).Unix(), 10))
		}

		if !decision.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(decision.Reset.Seconds())+1))
			p.reject(w, r, ReasonRateLimited)
			return
		}

		next.ServeHTTP(w, r)
	})
}
