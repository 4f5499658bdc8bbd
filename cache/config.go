package cache

import (
	"time"

	"github.com/goliatone/go-catalog-admin/internal/cacheinfra"
)

// Config configures the detail cache backend.
type Config = cacheinfra.Config

// EarlyRefreshConfig mirrors the underlying sturdyc early refresh options.
type EarlyRefreshConfig = cacheinfra.EarlyRefreshConfig

// ConfigError is returned by Config.Validate.
type ConfigError = cacheinfra.ConfigError

// DefaultConfig returns the detail cache defaults: a small capacity and a short TTL, since
// catalog records are cheap to refetch and change under the user's feet.
func DefaultConfig() Config {
	return cacheinfra.DefaultConfig()
}

// NewCacheService constructs the sturdyc backed cache service.
func NewCacheService(cfg Config) (CacheService, error) {
	return cacheinfra.NewSturdycService(cfg)
}

// WithTTL returns cfg with its TTL replaced when ttl is positive.
func WithTTL(cfg Config, ttl time.Duration) Config {
	if ttl > 0 {
		cfg.TTL = ttl
	}
	return cfg
}

// WithCapacity returns cfg with its capacity replaced when capacity is positive.
func WithCapacity(cfg Config, capacity int) Config {
	if capacity > 0 {
		cfg.Capacity = capacity
	}
	return cfg
}
