// Package storage provides the Redis-backed state shared across gateway
// replicas: the credential denylist, active refresh entries, and the
// fixed-window rate counters. Every multi-step mutation is a single Lua
// script so concurrent replicas never interleave.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	denylistPrefix = "perimeter:denylist:"
	refreshPrefix  = "perimeter:refresh:"
	windowPrefix   = "perimeter:window:"
)

// swapScript replaces the stored refresh digest only when the caller holds
// the currently active one. Returns 1 on swap, 0 when the stored digest
// differs or the entry is gone.
var swapScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2])
  redis.call("PEXPIRE", KEYS[1], ARGV[3])
  return 1
end
return 0
`)

// windowScript initializes or advances a fixed-window counter in one round
// trip. The window TTL is set only when the key is created, so the window
// boundary never slides. Returns the new count, or -1 when the window is
// already at its limit.
var windowScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == false then
  redis.call("SET", KEYS[1], 1)
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
  return 1
end
current = tonumber(current)
if current < tonumber(ARGV[1]) then
  return redis.call("INCR", KEYS[1])
end
return -1
`)

// Client wraps the Redis connection with the operations the gateway needs
type Client struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

// NewClient creates a Redis client from the connection URL and verifies
// connectivity with a ping
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	rdb := redis.NewClient(opts)

	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb, opTimeout: opTimeout}, nil
}

// NewClientFromRedis wraps an existing go-redis client. Used by tests.
func NewClientFromRedis(rdb *redis.Client, opTimeout time.Duration) *Client {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &Client{rdb: rdb, opTimeout: opTimeout}
}

// Ping checks connectivity
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}

// digest hashes a credential before it is used as a key or stored value.
// Raw credentials never reach Redis.
func digest(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:])
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// Deny adds a credential to the denylist for the given TTL. A non-positive
// TTL is a no-op since the credential is already past its own expiry.
func (c *Client) Deny(ctx context.Context, credential string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.rdb.Set(ctx, denylistPrefix+digest(credential), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist set: %w", err)
	}
	return nil
}

// IsDenied reports whether a credential is on the denylist
func (c *Client) IsDenied(ctx context.Context, credential string) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	n, err := c.rdb.Exists(ctx, denylistPrefix+digest(credential)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

// SetRefresh records the active refresh credential for a subject,
// replacing any previous one
func (c *Client) SetRefresh(ctx context.Context, subject, credential string, ttl time.Duration) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.rdb.Set(ctx, refreshPrefix+subject, digest(credential), ttl).Err(); err != nil {
		return fmt.Errorf("refresh set: %w", err)
	}
	return nil
}

// SwapRefresh atomically replaces the subject's active refresh credential,
// but only if the presented one is still the active one. Returns false when
// the presented credential has been superseded or the entry no longer exists.
func (c *Client) SwapRefresh(ctx context.Context, subject, presented, replacement string, ttl time.Duration) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	res, err := swapScript.Run(ctx, c.rdb,
		[]string{refreshPrefix + subject},
		digest(presented), digest(replacement), ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("refresh swap: %w", err)
	}
	return res == 1, nil
}

// DeleteRefresh removes the subject's active refresh entry. Idempotent.
func (c *Client) DeleteRefresh(ctx context.Context, subject string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if err := c.rdb.Del(ctx, refreshPrefix+subject).Err(); err != nil {
		return fmt.Errorf("refresh delete: %w", err)
	}
	return nil
}

// IncrWindow advances the fixed-window counter for key in a single atomic
// round trip. The first request in a window creates the counter with the
// window TTL; subsequent requests increment it up to limit. Returns the
// count after the call and whether the request fits in the window.
func (c *Client) IncrWindow(ctx context.Context, key string, limit int, window time.Duration) (int64, bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	count, err := windowScript.Run(ctx, c.rdb,
		[]string{windowPrefix + key},
		limit, window.Milliseconds(),
	).Int64()
	if err != nil {
		return 0, false, fmt.Errorf("window incr: %w", err)
	}
	if count < 0 {
		return int64(limit), false, nil
	}
	return count, true, nil
}

// WindowTTL returns the remaining time in the current window for key.
// Zero means no window is active.
func (c *Client) WindowTTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	ttl, err := c.rdb.PTTL(ctx, windowPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("window ttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
