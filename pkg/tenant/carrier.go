// Package tenant carries the per-request identity (tenant, user, request ID)
// through the request context and propagates it to outbound calls as
// explicit headers. The carrier lives only in the request's context.Context,
// never in package state, so it cannot leak between requests.
package tenant

import (
	"context"
	"net/http"
	"strings"

	"github.com/perimeterhq/perimeter/pkg/auth"
	"github.com/perimeterhq/perimeter/pkg/contextkeys"
)

// Propagation header names, shared by inbound resolution and outbound calls
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUsername  = "X-Username"
	HeaderRequestID = "X-Request-ID"
)

// queryParamTenant is the lowest-priority tenant source
const queryParamTenant = "tenantId"

// Context is the request-scoped identity carrier
type Context struct {
	TenantID  string
	UserID    string
	Username  string
	RequestID string
}

// Resolve determines the tenant for a request. Credential claims win over
// the X-Tenant-ID header, which wins over the tenantId query parameter.
func Resolve(r *http.Request, claims *auth.Claims) string {
	if claims != nil && strings.TrimSpace(claims.TenantID) != "" {
		return strings.TrimSpace(claims.TenantID)
	}
	if header := strings.TrimSpace(r.Header.Get(HeaderTenantID)); header != "" {
		return header
	}
	return strings.TrimSpace(r.URL.Query().Get(queryParamTenant))
}

// WithContext attaches the carrier to the request context
func WithContext(ctx context.Context, tc *Context) context.Context {
	return contextkeys.WithIdentity(ctx, tc)
}

// FromContext retrieves the carrier from the request context
func FromContext(ctx context.Context) (*Context, bool) {
	tc, ok := ctx.Value(contextkeys.IdentityKey).(*Context)
	if !ok || tc == nil {
		return nil, false
	}
	return tc, true
}

// ApplyHeaders stamps the propagation headers onto h, skipping empty values
func (tc *Context) ApplyHeaders(h http.Header) {
	if tc.TenantID != "" {
		h.Set(HeaderTenantID, tc.TenantID)
	}
	if tc.UserID != "" {
		h.Set(HeaderUserID, tc.UserID)
	}
	if tc.Username != "" {
		h.Set(HeaderUsername, tc.Username)
	}
	if tc.RequestID != "" {
		h.Set(HeaderRequestID, tc.RequestID)
	}
}
