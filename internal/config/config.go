// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"fmt"
	"time"
)

// Storage drivers and cache backends accepted by Validate.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	CacheBackendStore = "store" // cache lives in the row store
	CacheBackendRedis = "redis"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Cache    CacheConfig
	Lookup   LookupConfig
	Search   SearchConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig selects and tunes the durable row store.
type StorageConfig struct {
	// Driver picks the backend: postgres, sqlite, or memory.
	// Empty selects postgres when DATABASE_URL is set, sqlite otherwise.
	Driver string `env:"STORE_DRIVER"`

	// DatabaseURL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// SQLitePath is the database file used by the sqlite driver (default: leaksift.db)
	SQLitePath string `env:"SQLITE_PATH" default:"leaksift.db"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of pooled connections (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`
}

// EffectiveDriver resolves the storage driver, applying the auto-selection
// rule when Driver is unset.
func (c *StorageConfig) EffectiveDriver() string {
	if c.Driver != "" {
		return c.Driver
	}
	if c.DatabaseURL != "" {
		return DriverPostgres
	}
	return DriverSQLite
}

// CacheConfig selects where cached raw responses live.
type CacheConfig struct {
	// Backend is "store" (response cache in the row store) or "redis".
	Backend string `env:"CACHE_BACKEND" default:"store"`

	// RedisAddr is the Redis host:port (default: localhost:6379)
	RedisAddr string `env:"REDIS_ADDR" default:"localhost:6379"`

	// RedisDB is the Redis database number (default: 0)
	RedisDB int `env:"REDIS_DB" default:"0"`

	// TTL bounds the lifetime of Redis-cached responses; 0 keeps them forever.
	TTL time.Duration `env:"CACHE_TTL" default:"0s"`
}

// LookupConfig holds the upstream lookup service settings.
type LookupConfig struct {
	// URL is the fixed lookup endpoint.
	URL string `env:"LOOKUP_URL" default:"https://server.leakosint.com/"`

	// Token is the API credential sent with every lookup call (required).
	Token string `env:"LOOKUP_TOKEN" required:"true"`

	// Lang is the language code for upstream result text (default: id)
	Lang string `env:"LOOKUP_LANG" default:"id"`

	// Timeout bounds a single lookup call (default: 30s)
	Timeout time.Duration `env:"LOOKUP_TIMEOUT" default:"30s"`
}

// SearchConfig holds result presentation settings.
type SearchConfig struct {
	// PageSize is the fixed number of records per result page (default: 5)
	PageSize int `env:"SEARCH_PAGE_SIZE" default:"5"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey gates every API route behind X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys.
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
