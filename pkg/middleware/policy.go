package middleware

import (
	"net/http"
)

// Policy checks the route's access requirement for the authenticated user.
// Routes with no requirement pass through.
func (p *Pipeline) Policy(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		spec := p.specFromContext(r.Context())
		if spec.Public || spec.Requirement.Empty() {
			next.ServeHTTP(w, r)
			return
		}

		claims := claimsFromContext(r)
		if claims == nil {
			p.reject(w, r, ReasonMissingCredential)
			return
		}

		if !p.evaluator.Check(r.Context(), claims.Subject, spec.Requirement) {
			p.reject(w, r, ReasonPolicyDenied)
			return
		}

		next.ServeHTTP(w, r)
	})
}
