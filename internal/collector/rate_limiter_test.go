package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kurihiro0119/gitpeek/internal/errors"
	"github.com/kurihiro0119/gitpeek/internal/logging"
)

func TestRateLimiter_SpacesRequests(t *testing.T) {
	limiter := NewRateLimiter(20*time.Millisecond, 0, logging.Discard())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(ctx))
	}

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiter_WaitsForResetWhenLow(t *testing.T) {
	limiter := NewRateLimiter(0, 0, logging.Discard())
	limiter.UpdateLimit(1, time.Now().Add(50*time.Millisecond))

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))

	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	remaining, _, err := limiter.CheckLimit()
	require.NoError(t, err)
	assert.Greater(t, remaining, lowRateThreshold)
}

func TestRateLimiter_RefusesLongResetWait(t *testing.T) {
	limiter := NewRateLimiter(0, time.Second, logging.Discard())
	limiter.UpdateLimit(0, time.Now().Add(time.Hour))

	err := limiter.Wait(context.Background())

	assert.True(t, apperrors.IsRateLimited(err))
}

func TestRateLimiter_HonoursCancellation(t *testing.T) {
	limiter := NewRateLimiter(0, 0, logging.Discard())
	limiter.UpdateLimit(0, time.Now().Add(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, limiter.Wait(ctx), context.DeadlineExceeded)
}
