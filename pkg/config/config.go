// Package config loads and validates the proxy configuration from the
// environment and an optional classification rules file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Cache store backends selectable via CACHE_BACKEND.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds the full proxy configuration.
type Config struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string

	// UpstreamURL is the base URL of the backend API (scheme + host, no
	// trailing slash required).
	UpstreamURL string

	// UpstreamKey is the service credential sent to the backend on every
	// proxied request.
	UpstreamKey string

	// UpstreamTimeout bounds a single upstream round trip.
	UpstreamTimeout time.Duration

	// PurgeSecret authorizes PURGE requests via the X-Purge-Secret header.
	PurgeSecret string

	// AllowedOrigins is the browser origin allowlist. Loopback origins are
	// always allowed regardless of this list.
	AllowedOrigins []string

	// MobileUAMarkers are case-insensitive User-Agent substrings that mark
	// non-browser runtimes (wildcard CORS, no credentials).
	MobileUAMarkers []string

	// Environment names the deployment stage ("production" tightens
	// logging of rejected origins).
	Environment string

	// MasterData and Transactional are the resource name sets driving
	// cache classification. Both may be empty; empty sets mean nothing
	// is cacheable.
	MasterData    []string
	Transactional []string

	// MasterDataTTL is the freshness lifetime for cacheable responses.
	MasterDataTTL time.Duration

	// CacheBackend selects the store provider: redis, memory, or sqlite.
	CacheBackend string

	// RedisURL is the Redis connection URL for the redis backend.
	RedisURL string

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string

	// ProxyPrefixes are the path prefixes forwarded to the upstream.
	ProxyPrefixes []string

	// Logging
	LogLevel  string
	LogPretty bool
}

// Default returns the configuration baseline before environment overrides.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		UpstreamTimeout: 30 * time.Second,
		MobileUAMarkers: []string{"dart", "okhttp", "cfnetwork"},
		Environment:     "development",
		MasterDataTTL:   time.Hour,
		CacheBackend:    BackendRedis,
		RedisURL:        "redis://localhost:6379/0",
		SQLitePath:      "cachefront.db",
		ProxyPrefixes:   []string{"/rest/", "/auth/", "/storage/"},
		LogLevel:        "info",
	}
}

// FromEnv builds a Config from the process environment. A rules file named
// by RULES_FILE is loaded on top of the environment values.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.UpstreamURL = os.Getenv("UPSTREAM_URL")
	cfg.UpstreamKey = os.Getenv("UPSTREAM_API_KEY")
	cfg.PurgeSecret = os.Getenv("PURGE_SECRET")

	if v := os.Getenv("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("MASTER_DATA_RESOURCES"); v != "" {
		cfg.MasterData = splitList(v)
	}
	if v := os.Getenv("TRANSACTIONAL_RESOURCES"); v != "" {
		cfg.Transactional = splitList(v)
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.CacheBackend = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_PRETTY"); v == "true" || v == "1" {
		cfg.LogPretty = true
	}

	if path := os.Getenv("RULES_FILE"); path != "" {
		rules, err := LoadRules(path)
		if err != nil {
			return cfg, fmt.Errorf("loading rules file: %w", err)
		}
		if err := rules.Validate(); err != nil {
			return cfg, fmt.Errorf("rules file %s: %w", path, err)
		}
		rules.Apply(&cfg)
	}

	return cfg, nil
}

// MissingSettings reports which of the settings the proxy cannot serve
// without are absent. An empty result means the core trio is present.
func (c Config) MissingSettings() []string {
	var missing []string
	if c.UpstreamURL == "" {
		missing = append(missing, "upstream URL")
	}
	if c.UpstreamKey == "" {
		missing = append(missing, "upstream API key")
	}
	if c.PurgeSecret == "" {
		missing = append(missing, "purge secret")
	}
	return missing
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if missing := c.MissingSettings(); len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil {
		return fmt.Errorf("upstream URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("upstream URL must be absolute, got %q", c.UpstreamURL)
	}

	switch c.CacheBackend {
	case BackendRedis, BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache backend %q: use redis, memory, or sqlite", c.CacheBackend)
	}

	if c.CacheBackend == BackendRedis && c.RedisURL == "" {
		return fmt.Errorf("redis URL is required for the redis backend")
	}
	if c.CacheBackend == BackendSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite path is required for the sqlite backend")
	}

	if c.MasterDataTTL <= 0 {
		return fmt.Errorf("master data TTL must be positive, got %s", c.MasterDataTTL)
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}

	return nil
}

// splitList splits a comma-separated environment value into trimmed,
// non-empty entries.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
