package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes the two credential roles. Access credentials admit
// requests; refresh credentials only mint new pairs.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	// ErrInvalidCredential indicates a malformed credential, a bad
	// signature, or a credential of the wrong kind
	ErrInvalidCredential = errors.New("invalid credential")

	// ErrExpiredCredential indicates a well-formed credential past its expiry
	ErrExpiredCredential = errors.New("credential expired")

	// ErrRevokedCredential indicates a credential on the denylist, or one
	// whose revocation status could not be confirmed
	ErrRevokedCredential = errors.New("credential revoked")

	// ErrRefreshSuperseded indicates a refresh credential that is no longer
	// the subject's active one
	ErrRefreshSuperseded = errors.New("refresh credential superseded")

	// ErrStoreUnavailable indicates the credential store could not complete
	// a required write
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Claims are the signed contents of a credential
type Claims struct {
	TenantID string `json:"tid"`
	Username string `json:"name,omitempty"`
	Kind     Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is a freshly minted access/refresh credential pair along with the
// identity it was minted for
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Subject      string
	TenantID     string
	Username     string
}
