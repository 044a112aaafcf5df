package api

// LoginRequest is the login exchange body
type LoginRequest struct {
	TenantID string `json:"tenantId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh credential to rotate
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse is returned by login and refresh
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	ExpiresAt    int64  `json:"expiresAt"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	TenantID     string `json:"tenantId"`
}

// WhoAmIResponse echoes the identity the gateway resolved for the request
type WhoAmIResponse struct {
	TenantID  string `json:"tenantId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	RequestID string `json:"requestId"`
}
