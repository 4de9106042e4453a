package ratelimit

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

// RetryError is returned when all delivery attempts are exhausted
type RetryError struct {
	URL        string
	Attempts   int
	LastStatus int
	LastError  error
}

func (e *RetryError) Error() string {
	msg := "failed to deliver to " + e.URL + " after " + strconv.Itoa(e.Attempts) + " attempts"
	if e.LastStatus != 0 {
		msg += " (HTTP " + strconv.Itoa(e.LastStatus) + ")"
	}
	if e.LastError != nil {
		msg += ": " + e.LastError.Error()
	}
	return msg
}

func (e *RetryError) Unwrap() error {
	return e.LastError
}

// IsRetryableStatus checks if an HTTP status code is retryable
// Retryable: 408, 429, 5xx
func IsRetryableStatus(status int) bool {
	return status == 408 || status == 429 || (status >= 500 && status < 600)
}

// CalculateBackoff returns the exponential backoff for attempt with 0-25% jitter
func CalculateBackoff(attempt int, config Config) time.Duration {
	return backoff(attempt, 2.0, config)
}

// CalculateRateLimitBackoff returns the backoff after an HTTP 429. A
// Retry-After header in seconds wins over the computed delay.
func CalculateRateLimitBackoff(attempt int, config Config, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
		return time.Duration(seconds)*time.Second + time.Duration(rand.Int64N(int64(time.Second)))
	}
	return backoff(attempt, 3.0, config)
}

func backoff(attempt int, base float64, config Config) time.Duration {
	delay := float64(config.InitialBackoff) * math.Pow(base, float64(attempt))
	capped := math.Min(delay, float64(config.MaxBackoff))
	jitter := rand.Float64() * 0.25 * capped
	return time.Duration(capped + jitter)
}

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
