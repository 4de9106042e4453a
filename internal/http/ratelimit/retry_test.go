package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsRetryableStatus(t *testing.T) {
	for status, want := range map[int]bool{
		200: false, 400: false, 404: false,
		408: true, 429: true, 500: true, 503: true,
	} {
		assert.Equal(t, want, IsRetryableStatus(status), status)
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second}

	d := CalculateBackoff(2, cfg)
	assert.GreaterOrEqual(t, d, 400*time.Millisecond)
	assert.LessOrEqual(t, d, 500*time.Millisecond)

	capped := CalculateBackoff(10, cfg)
	assert.GreaterOrEqual(t, capped, time.Second)
	assert.LessOrEqual(t, capped, 1250*time.Millisecond)
}

func TestCalculateRateLimitBackoff(t *testing.T) {
	cfg := Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Minute}

	d := CalculateRateLimitBackoff(0, cfg, "3")
	assert.GreaterOrEqual(t, d, 3*time.Second)
	assert.Less(t, d, 4*time.Second)

	d = CalculateRateLimitBackoff(1, cfg, "")
	assert.GreaterOrEqual(t, d, 300*time.Millisecond)
	assert.LessOrEqual(t, d, 375*time.Millisecond)
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}
