package middleware

import (
	"net/http"
	"strings"

	"github.com/perimeterhq/perimeter/pkg/contextkeys"
)

// bearerCredential extracts the credential from the Authorization header
func bearerCredential(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate verifies the bearer credential and puts its claims into the
// request context. Public routes pass through untouched.
func (p *Pipeline) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spec := p.specFromContext(r.Context())
		if spec.Public {
			next.ServeHTTP(w, r)
			return
		}

		credential, ok := bearerCredential(r)
		if !ok {
			p.reject(w, r, ReasonMissingCredential)
			return
		}

		claims, err := p.tokens.VerifyAccess(r.Context(), credential)
		if err != nil {
			p.reject(w, r, reasonForAuthError(err))
			return
		}

		ctx := contextkeys.WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
