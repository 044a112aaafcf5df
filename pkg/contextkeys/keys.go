// Package contextkeys provides centralized context key definitions
//
// IMPORTANT: All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// IdentityKey contains *tenant.Context for the authenticated request
	// Set by: middleware.Pipeline after credential verification
	// Required by: all protected handlers, policy checks, outbound propagation
	// Type: *tenant.Context
	IdentityKey Key = "identity"

	// ClaimsKey contains *auth.Claims decoded from the access credential
	// Set by: middleware.Pipeline authenticate stage
	// Type: *auth.Claims
	ClaimsKey Key = "claims"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: middleware.Pipeline requestID stage
	// Used by: logger, propagation headers
	// Type: string
	RequestIDKey Key = "request_id"

	// RouteSpecKey contains the admission rules for the matched route
	// Set by: middleware.Pipeline route-lookup stage
	// Type: middleware.RouteSpec
	RouteSpecKey Key = "route_spec"

	// LoggerKey contains *observability.Logger scoped to the request
	// Type: *observability.Logger
	LoggerKey Key = "logger"
)

// WithIdentity adds the request identity to the context
func WithIdentity(ctx context.Context, identity interface{}) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// WithClaims adds decoded credential claims to the context
func WithClaims(ctx context.Context, claims interface{}) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
