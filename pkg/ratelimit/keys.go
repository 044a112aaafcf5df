package ratelimit

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// ClientIdentity determines the caller identity for rate counting.
// An authenticated forwarded user wins over proxy headers, which win
// over the peer address.
func ClientIdentity(r *http.Request) string {
	if user := strings.TrimSpace(r.Header.Get("X-Forwarded-User")); user != "" {
		return user
	}

	// First hop of X-Forwarded-For is the original client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RoutePath returns the matched route template so counters aggregate per
// route, not per concrete URL. Falls back to the raw path when the request
// did not go through the router.
func RoutePath(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
