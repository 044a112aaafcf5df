// Package auth implements the credential codec and the token lifecycle:
// issuance, verification against the denylist, refresh rotation with
// single-use enforcement, and revocation.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew is the tolerance applied when validating issued-at timestamps
const clockSkew = 5 * time.Second

// Codec signs and verifies credentials using HS256 with a shared secret.
// It is pure: no network, no storage.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec creates a codec for the given signing secret and issuer name
func NewCodec(secret []byte, issuer string) *Codec {
	return &Codec{secret: secret, issuer: issuer}
}

// NewClaims builds claims for a credential issued now
func (c *Codec) NewClaims(subject, tenantID, username string, kind Kind, ttl time.Duration) Claims {
	now := time.Now().UTC()
	return Claims{
		TenantID: tenantID,
		Username: username,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
}

// Encode signs claims into a compact credential string
func (c *Codec) Encode(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Decode verifies the signature and structural claims of a credential.
// When the only defect is a past expiry it returns the claims together
// with ErrExpiredCredential so callers can still act on the identity.
// Every other defect returns ErrInvalidCredential.
func (c *Codec) Decode(credential string) (*Claims, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrInvalidCredential
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidCredential
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidCredential
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidCredential
	}
	if err := c.validateClaims(claims); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if now.After(claims.ExpiresAt.Time) {
		return claims, ErrExpiredCredential
	}
	return claims, nil
}

func (c *Codec) validateClaims(claims *Claims) error {
	if claims.Issuer != c.issuer {
		return ErrInvalidCredential
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return ErrInvalidCredential
	}
	if claims.Kind != KindAccess && claims.Kind != KindRefresh {
		return ErrInvalidCredential
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return ErrInvalidCredential
	}
	if claims.ExpiresAt.Time.Before(claims.IssuedAt.Time) {
		return ErrInvalidCredential
	}
	now := time.Now().UTC()
	if claims.IssuedAt.Time.After(now.Add(clockSkew)) {
		return ErrInvalidCredential
	}
	return nil
}
