package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/perimeterhq/perimeter/pkg/tenant"
)

// HTTPClient queries the remote policy service over REST. Outbound calls
// carry the request's propagation headers via tenant.Transport.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a policy service client with a bounded timeout
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

type grantResponse struct {
	Allowed bool `json:"allowed"`
}

// HasPermission checks a single permission grant for a user
func (c *HTTPClient) HasPermission(ctx context.Context, userID, code string) (bool, error) {
	return c.check(ctx, userID, "permissions", code)
}

// HasRole checks a single role grant for a user
func (c *HTTPClient) HasRole(ctx context.Context, userID, code string) (bool, error) {
	return c.check(ctx, userID, "roles", code)
}

func (c *HTTPClient) check(ctx context.Context, userID, table, code string) (bool, error) {
	endpoint := fmt.Sprintf("%s/v1/users/%s/%s/%s",
		c.baseURL, url.PathEscape(userID), table, url.PathEscape(code))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build policy request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("policy service call: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var grant grantResponse
		if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
			return false, fmt.Errorf("decode policy response: %w", err)
		}
		return grant.Allowed, nil
	case http.StatusNotFound:
		// Unknown user or code is simply not granted
		return false, nil
	default:
		return false, fmt.Errorf("policy service returned status %d", resp.StatusCode)
	}
}
