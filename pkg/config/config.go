// Package config loads gateway configuration from PERIMETER_* environment
// variables with typed getters and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/perimeterhq/perimeter/pkg/ratelimit"
	"github.com/perimeterhq/perimeter/pkg/storage"
)

// Config holds all gateway configuration
type Config struct {
	Server        ServerConfig
	Redis         storage.Config
	Auth          AuthConfig
	RateLimit     ratelimit.Config
	Policy        PolicyConfig
	Directory     DirectoryConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds credential settings
type AuthConfig struct {
	// Secret signs every credential; required
	Secret string

	// Issuer names this gateway in issued credentials
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// PolicyConfig holds the remote policy service settings
type PolicyConfig struct {
	BaseURL string
	Timeout time.Duration
}

// DirectoryConfig holds the user service settings. An empty BaseURL selects
// the in-memory directory.
type DirectoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
}

// Load reads configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("PERIMETER_HOST", "0.0.0.0"),
			Port:            getEnvInt("PERIMETER_PORT", 8080),
			ReadTimeout:     getEnvDuration("PERIMETER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("PERIMETER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvDuration("PERIMETER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Redis: storage.Config{
			URL:        getEnv("PERIMETER_REDIS_URL", "redis://localhost:6379/0"),
			Password:   getEnv("PERIMETER_REDIS_PASSWORD", ""),
			DB:         getEnvInt("PERIMETER_REDIS_DB", 0),
			MaxRetries: getEnvInt("PERIMETER_REDIS_MAX_RETRIES", 3),
			PoolSize:   getEnvInt("PERIMETER_REDIS_POOL_SIZE", 10),
			OpTimeout:  getEnvDuration("PERIMETER_REDIS_OP_TIMEOUT", 2*time.Second),
		},
		Auth: AuthConfig{
			Secret:     getEnv("PERIMETER_AUTH_SECRET", ""),
			Issuer:     getEnv("PERIMETER_AUTH_ISSUER", "perimeter"),
			AccessTTL:  getEnvDuration("PERIMETER_ACCESS_TTL", 2*time.Hour),
			RefreshTTL: getEnvDuration("PERIMETER_REFRESH_TTL", 7*24*time.Hour),
		},
		RateLimit: ratelimit.Config{
			Limit:    getEnvInt("PERIMETER_RATELIMIT_REQUESTS", 100),
			Window:   getEnvDuration("PERIMETER_RATELIMIT_WINDOW", time.Minute),
			FailOpen: getEnvBool("PERIMETER_RATELIMIT_FAIL_OPEN", true),
		},
		Policy: PolicyConfig{
			BaseURL: getEnv("PERIMETER_POLICY_URL", ""),
			Timeout: getEnvDuration("PERIMETER_POLICY_TIMEOUT", 3*time.Second),
		},
		Directory: DirectoryConfig{
			BaseURL: getEnv("PERIMETER_DIRECTORY_URL", ""),
			Timeout: getEnvDuration("PERIMETER_DIRECTORY_TIMEOUT", 3*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("PERIMETER_LOG_LEVEL", "info"),
			MetricsEnabled: getEnvBool("PERIMETER_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for fatal mistakes
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Auth.Secret == "" {
		return fmt.Errorf("PERIMETER_AUTH_SECRET is required")
	}
	if len(c.Auth.Secret) < 32 {
		return fmt.Errorf("PERIMETER_AUTH_SECRET must be at least 32 bytes")
	}
	if c.Auth.AccessTTL <= 0 {
		return fmt.Errorf("access TTL must be positive")
	}
	if c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		return fmt.Errorf("refresh TTL must exceed access TTL")
	}
	if c.RateLimit.Limit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.RateLimit.Limit > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
