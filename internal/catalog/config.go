package catalog

import "time"

// CacheConfig holds the configuration for the catalog cache.
type CacheConfig struct {
	// TTL bounds how long a snapshot is served before it is reloaded.
	TTL time.Duration `mapstructure:"cache_ttl"`

	// LoadTimeout bounds a single load from the backing store.
	LoadTimeout time.Duration `mapstructure:"cache_load_timeout"`

	// WarmupConcurrency limits concurrent loads during warmup.
	WarmupConcurrency int `mapstructure:"warmup_concurrency"`
}

// DefaultCacheConfig returns the default cache configuration.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		TTL:               5 * time.Minute,
		LoadTimeout:       10 * time.Second,
		WarmupConcurrency: 3,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *CacheConfig) Validate() error {
	if c.TTL <= 0 {
		return ErrInvalidConfig{Field: "cache_ttl", Reason: "must be positive"}
	}
	if c.LoadTimeout <= 0 {
		return ErrInvalidConfig{Field: "cache_load_timeout", Reason: "must be positive"}
	}
	if c.WarmupConcurrency < 1 {
		return ErrInvalidConfig{Field: "warmup_concurrency", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
