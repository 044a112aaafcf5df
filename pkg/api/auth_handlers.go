package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/perimeterhq/perimeter/pkg/auth"
	"github.com/perimeterhq/perimeter/pkg/directory"
	"github.com/perimeterhq/perimeter/pkg/httputil"
	"github.com/perimeterhq/perimeter/pkg/observability"
	"github.com/perimeterhq/perimeter/pkg/tenant"
)

// AuthHandlers serves the credential lifecycle endpoints
type AuthHandlers struct {
	tokens *auth.Manager
	users  directory.Service
	logger *observability.Logger
}

// NewAuthHandlers creates the lifecycle handlers
func NewAuthHandlers(tokens *auth.Manager, users directory.Service, logger *observability.Logger) *AuthHandlers {
	return &AuthHandlers{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// RegisterRoutes registers the lifecycle endpoints on the router
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/v1/auth/login", h.login).Methods("POST")
	router.HandleFunc("/v1/auth/refresh", h.refresh).Methods("POST")
	router.HandleFunc("/v1/auth/logout", h.logout).Methods("POST")
	router.HandleFunc("/v1/me", h.whoami).Methods("GET")
}

func tokenResponse(pair *auth.Pair) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    pair.ExpiresAt.UnixMilli(),
		UserID:       pair.Subject,
		Username:     pair.Username,
		TenantID:     pair.TenantID,
	}
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.TenantID, "tenantId") ||
		!httputil.RequireNonEmpty(w, req.Username, "username") ||
		!httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.TenantID, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, directory.ErrInvalidLogin) {
			httputil.WriteUnauthorized(w, "invalid username or password")
			return
		}
		h.logger.WithError(err).WithField("tenant_id", req.TenantID).Error("directory lookup failed")
		httputil.WriteServiceUnavailable(w, "user directory unavailable")
		return
	}

	pair, err := h.tokens.Issue(r.Context(), user.ID, user.TenantID, user.Username)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", user.ID).Error("credential issuance failed")
		httputil.WriteServiceUnavailable(w, "credential issuance unavailable")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id":   user.ID,
		"tenant_id": user.TenantID,
	}).Info("login succeeded")
	_ = httputil.WriteSuccess(w, tokenResponse(pair))
}

func (h *AuthHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.RefreshToken, "refreshToken") {
		return
	}

	pair, err := h.tokens.Rotate(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrRefreshSuperseded):
			httputil.WriteUnauthorized(w, "refresh credential is no longer active")
		case errors.Is(err, auth.ErrExpiredCredential):
			httputil.WriteUnauthorized(w, "refresh credential has expired")
		case errors.Is(err, auth.ErrStoreUnavailable):
			httputil.WriteServiceUnavailable(w, "credential store unavailable")
		default:
			httputil.WriteUnauthorized(w, "refresh credential is invalid")
		}
		return
	}

	_ = httputil.WriteSuccess(w, tokenResponse(pair))
}

// logout revokes the presented access credential. Idempotent: requests
// without a usable credential still return 204.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		httputil.WriteNoContent(w)
		return
	}

	if err := h.tokens.Revoke(r.Context(), parts[1]); err != nil {
		h.logger.WithError(err).Error("revocation failed")
		httputil.WriteServiceUnavailable(w, "credential store unavailable")
		return
	}

	httputil.WriteNoContent(w)
}

// whoami echoes the identity the pipeline resolved. Useful as a probe for
// downstream integrations.
func (h *AuthHandlers) whoami(w http.ResponseWriter, r *http.Request) {
	tc, ok := tenant.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "no identity resolved for this request")
		return
	}
	_ = httputil.WriteSuccess(w, WhoAmIResponse{
		TenantID:  tc.TenantID,
		UserID:    tc.UserID,
		Username:  tc.Username,
		RequestID: tc.RequestID,
	})
}
