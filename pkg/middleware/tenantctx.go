package middleware

import (
	"net/http"

	"github.com/perimeterhq/perimeter/pkg/auth"
	"github.com/perimeterhq/perimeter/pkg/contextkeys"
	"github.com/perimeterhq/perimeter/pkg/tenant"
)

// claimsFromContext returns the claims placed by the Authenticate stage
func claimsFromContext(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(contextkeys.ClaimsKey).(*auth.Claims)
	return claims
}

// TenantContext resolves the tenant for the request and binds the identity
// carrier into the context. Resolution order: credential claims, then the
// X-Tenant-ID header, then the tenantId query parameter.
func (p *Pipeline) TenantContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spec := p.specFromContext(r.Context())
		if spec.Public {
			next.ServeHTTP(w, r)
			return
		}

		claims := claimsFromContext(r)
		tenantID := tenant.Resolve(r, claims)
		if tenantID == "" && spec.TenantRequired {
			p.reject(w, r, ReasonTenantMissing)
			return
		}

		tc := &tenant.Context{
			TenantID:  tenantID,
			RequestID: contextkeys.GetRequestID(r.Context()),
		}
		if claims != nil {
			tc.UserID = claims.Subject
			tc.Username = claims.Username
		}

		ctx := tenant.WithContext(r.Context(), tc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
