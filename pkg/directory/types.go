// Package directory authenticates login credentials against a user store:
// an in-memory bcrypt-backed directory for development and tests, or a
// remote user service over HTTP.
package directory

import (
	"context"
	"errors"
)

// ErrInvalidLogin covers unknown users, wrong passwords, and disabled
// accounts alike, so responses do not reveal which one it was
var ErrInvalidLogin = errors.New("invalid username or password")

// User is a directory entry
type User struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// Service authenticates a login attempt within a tenant
type Service interface {
	Authenticate(ctx context.Context, tenantID, username, password string) (*User, error)
}
