package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/perimeterhq/perimeter/pkg/observability"
)

// Store is the shared state the lifecycle needs: the denylist and the
// per-subject active refresh entry. Implemented by storage.Client.
type Store interface {
	Deny(ctx context.Context, credential string, ttl time.Duration) error
	IsDenied(ctx context.Context, credential string) (bool, error)
	SetRefresh(ctx context.Context, subject, credential string, ttl time.Duration) error
	SwapRefresh(ctx context.Context, subject, presented, replacement string, ttl time.Duration) (bool, error)
	DeleteRefresh(ctx context.Context, subject string) error
}

// Manager drives the credential lifecycle. At most one refresh credential
// is active per subject at any time; rotation is first-wins.
type Manager struct {
	codec      *Codec
	store      Store
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// NewManager creates a lifecycle manager. metrics may be nil.
func NewManager(codec *Codec, store Store, accessTTL, refreshTTL time.Duration, logger *observability.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		codec:      codec,
		store:      store,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
		metrics:    metrics,
	}
}

func (m *Manager) count(operation, outcome string) {
	if m.metrics != nil {
		m.metrics.TokenOperationsTotal.WithLabelValues(operation, outcome).Inc()
	}
}

// Issue mints a new credential pair for the subject and records the refresh
// credential as the subject's single active one
func (m *Manager) Issue(ctx context.Context, subject, tenantID, username string) (*Pair, error) {
	accessClaims := m.codec.NewClaims(subject, tenantID, username, KindAccess, m.accessTTL)
	access, err := m.codec.Encode(accessClaims)
	if err != nil {
		m.count("issue", "error")
		return nil, fmt.Errorf("encode access credential: %w", err)
	}

	refreshClaims := m.codec.NewClaims(subject, tenantID, username, KindRefresh, m.refreshTTL)
	refresh, err := m.codec.Encode(refreshClaims)
	if err != nil {
		m.count("issue", "error")
		return nil, fmt.Errorf("encode refresh credential: %w", err)
	}

	if err := m.store.SetRefresh(ctx, subject, refresh, m.refreshTTL); err != nil {
		m.count("issue", "error")
		m.logger.WithError(err).WithField("subject", subject).Error("failed to record active refresh credential")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	m.count("issue", "ok")
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessClaims.ExpiresAt.Time,
		Subject:      subject,
		TenantID:     tenantID,
		Username:     username,
	}, nil
}

// VerifyAccess validates an access credential and checks it against the
// denylist. A denylist lookup failure is treated as revoked: the gateway
// must not admit a credential whose revocation status is unknown.
func (m *Manager) VerifyAccess(ctx context.Context, credential string) (*Claims, error) {
	claims, err := m.codec.Decode(credential)
	if err != nil {
		if errors.Is(err, ErrExpiredCredential) {
			m.count("verify", "expired")
			return nil, ErrExpiredCredential
		}
		m.count("verify", "invalid")
		return nil, ErrInvalidCredential
	}
	if claims.Kind != KindAccess {
		m.count("verify", "invalid")
		return nil, ErrInvalidCredential
	}

	denied, err := m.store.IsDenied(ctx, credential)
	if err != nil {
		m.count("verify", "store_error")
		m.logger.WithError(err).WithField("subject", claims.Subject).Warn("revocation check unavailable, failing closed")
		return nil, fmt.Errorf("revocation check unavailable: %w", ErrRevokedCredential)
	}
	if denied {
		m.count("verify", "revoked")
		return nil, ErrRevokedCredential
	}

	m.count("verify", "ok")
	return claims, nil
}

// Rotate exchanges a refresh credential for a new pair. The presented
// credential must be the subject's active one; the swap to the replacement
// is atomic, so of two concurrent rotations exactly one succeeds and the
// other observes ErrRefreshSuperseded.
func (m *Manager) Rotate(ctx context.Context, refreshCredential string) (*Pair, error) {
	claims, err := m.codec.Decode(refreshCredential)
	if err != nil {
		if errors.Is(err, ErrExpiredCredential) {
			m.count("rotate", "expired")
			return nil, ErrExpiredCredential
		}
		m.count("rotate", "invalid")
		return nil, ErrInvalidCredential
	}
	if claims.Kind != KindRefresh {
		m.count("rotate", "invalid")
		return nil, ErrInvalidCredential
	}

	accessClaims := m.codec.NewClaims(claims.Subject, claims.TenantID, claims.Username, KindAccess, m.accessTTL)
	access, err := m.codec.Encode(accessClaims)
	if err != nil {
		m.count("rotate", "error")
		return nil, fmt.Errorf("encode access credential: %w", err)
	}
	refreshClaims := m.codec.NewClaims(claims.Subject, claims.TenantID, claims.Username, KindRefresh, m.refreshTTL)
	refresh, err := m.codec.Encode(refreshClaims)
	if err != nil {
		m.count("rotate", "error")
		return nil, fmt.Errorf("encode refresh credential: %w", err)
	}

	swapped, err := m.store.SwapRefresh(ctx, claims.Subject, refreshCredential, refresh, m.refreshTTL)
	if err != nil {
		m.count("rotate", "store_error")
		m.logger.WithError(err).WithField("subject", claims.Subject).Error("refresh swap failed")
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !swapped {
		m.count("rotate", "superseded")
		return nil, ErrRefreshSuperseded
	}

	m.count("rotate", "ok")
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessClaims.ExpiresAt.Time,
		Subject:      claims.Subject,
		TenantID:     claims.TenantID,
		Username:     claims.Username,
	}, nil
}

// Revoke denylists an access credential for its remaining lifetime and
// drops the subject's active refresh entry. Idempotent: revoking an
// unknown, expired, or already-revoked credential succeeds.
func (m *Manager) Revoke(ctx context.Context, credential string) error {
	claims, err := m.codec.Decode(credential)
	if err != nil && !errors.Is(err, ErrExpiredCredential) {
		m.count("revoke", "noop")
		return nil
	}

	if err == nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if denyErr := m.store.Deny(ctx, credential, ttl); denyErr != nil {
			m.count("revoke", "store_error")
			m.logger.WithError(denyErr).WithField("subject", claims.Subject).Error("failed to denylist credential")
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, denyErr)
		}
	}

	if delErr := m.store.DeleteRefresh(ctx, claims.Subject); delErr != nil {
		m.count("revoke", "store_error")
		m.logger.WithError(delErr).WithField("subject", claims.Subject).Error("failed to drop refresh entry")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, delErr)
	}

	m.count("revoke", "ok")
	return nil
}
