package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/perimeterhq/perimeter/pkg/tenant"
)

// HTTPClient authenticates against a remote user service
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a user service client with a bounded timeout
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: tenant.NewTransport(nil),
		},
	}
}

type authenticateRequest struct {
	TenantID string `json:"tenantId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authenticate verifies the login against the remote user service.
// A 401 from the service maps to ErrInvalidLogin; anything else
// unexpected is surfaced as an error.
func (c *HTTPClient) Authenticate(ctx context.Context, tenantID, username, password string) (*User, error) {
	body, err := json.Marshal(authenticateRequest{
		TenantID: tenantID,
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("encode authenticate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/authenticate", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("build authenticate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user service call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("decode user response: %w", err)
		}
		if !user.Active {
			return nil, ErrInvalidLogin
		}
		return &user, nil
	case http.StatusUnauthorized, http.StatusNotFound:
		return nil, ErrInvalidLogin
	default:
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}
}
