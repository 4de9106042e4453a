package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Config holds outbound rate limiting and retry configuration
type Config struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second" json:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst" json:"burst"`
	MaxRetries        int           `mapstructure:"max_retries" json:"maxRetries"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff" json:"initialBackoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff" json:"maxBackoff"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 5,
		Burst:             5,
		MaxRetries:        3,
		InitialBackoff:    200 * time.Millisecond,
		MaxBackoff:        30 * time.Second,
	}
}

// RateLimiter is a token bucket shared by all requests of a client
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter from config. A non-positive rate disables
// limiting.
func NewRateLimiter(config Config) *RateLimiter {
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, burst)}
}

// Throttle blocks until a request may be sent or ctx is done
func (r *RateLimiter) Throttle(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
