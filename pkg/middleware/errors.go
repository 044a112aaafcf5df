package middleware

import (
	"errors"
	"net/http"

	"github.com/perimeterhq/perimeter/pkg/auth"
)

// Reason identifies why the pipeline rejected a request. Used as the
// metrics label and to select status code and message.
type Reason string

const (
	ReasonMissingCredential   Reason = "missing_credential"
	ReasonInvalidCredential   Reason = "invalid_credential"
	ReasonExpiredCredential   Reason = "expired_credential"
	ReasonRevokedCredential   Reason = "revoked_credential"
	ReasonTenantMissing       Reason = "tenant_missing"
	ReasonRateLimited         Reason = "rate_limited"
	ReasonPolicyDenied        Reason = "policy_denied"
	ReasonUpstreamUnavailable Reason = "upstream_unavailable"
)

// Status maps a rejection reason to its HTTP status code
func (r Reason) Status() int {
	switch r {
	case ReasonMissingCredential, ReasonInvalidCredential,
		ReasonExpiredCredential, ReasonRevokedCredential:
		return http.StatusUnauthorized
	case ReasonTenantMissing:
		return http.StatusBadRequest
	case ReasonRateLimited:
		return http.StatusTooManyRequests
	case ReasonPolicyDenied:
		return http.StatusForbidden
	case ReasonUpstreamUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing description. Deliberately generic:
// rejection bodies never echo credential contents.
func (r Reason) Message() string {
	switch r {
	case ReasonMissingCredential:
		return "authentication credential is missing"
	case ReasonInvalidCredential:
		return "authentication credential is invalid"
	case ReasonExpiredCredential:
		return "authentication credential has expired"
	case ReasonRevokedCredential:
		return "authentication credential has been revoked"
	case ReasonTenantMissing:
		return "tenant could not be determined for this request"
	case ReasonRateLimited:
		return "rate limit exceeded, try again later"
	case ReasonPolicyDenied:
		return "insufficient permissions for this resource"
	case ReasonUpstreamUnavailable:
		return "a required upstream service is unavailable"
	default:
		return "request rejected"
	}
}

// reasonForAuthError maps verification errors to rejection reasons
func reasonForAuthError(err error) Reason {
	switch {
	case errors.Is(err, auth.ErrExpiredCredential):
		return ReasonExpiredCredential
	case errors.Is(err, auth.ErrRevokedCredential):
		return ReasonRevokedCredential
	case errors.Is(err, auth.ErrStoreUnavailable):
		return ReasonUpstreamUnavailable
	default:
		return ReasonInvalidCredential
	}
}
