package storage

import "time"

// Config holds Redis connection settings
type Config struct {
	// URL is a redis:// connection URL
	URL string

	// Password overrides any password embedded in the URL when set
	Password string

	// DB selects the Redis logical database
	DB int

	// MaxRetries sets the number of retries for failed commands
	MaxRetries int

	// PoolSize sets the connection pool size
	PoolSize int

	// OpTimeout bounds individual store operations issued by callers
	OpTimeout time.Duration
}

// DefaultConfig returns sensible defaults for local development
func DefaultConfig() Config {
	return Config{
		URL:        "redis://localhost:6379/0",
		MaxRetries: 3,
		PoolSize:   10,
		OpTimeout:  2 * time.Second,
	}
}
