package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	apperrors "github.com/kurihiro0119/gitpeek/internal/errors"
)

const (
	defaultRateLimit = 5000 // GitHub API default limit
	lowRateThreshold = 10
)

// RateLimiter manages GitHub API rate limiting
type RateLimiter interface {
	Wait(ctx context.Context) error
	CheckLimit() (remaining int, resetTime time.Time, err error)
	UpdateLimit(remaining int, resetTime time.Time)
}

// githubRateLimiter implements RateLimiter for GitHub API
type githubRateLimiter struct {
	mu        sync.Mutex
	remaining int
	resetTime time.Time
	minDelay  time.Duration
	maxWait   time.Duration
	nextCall  time.Time
	logger    *slog.Logger
}

// NewRateLimiter creates a new rate limiter. minDelay spaces consecutive
// requests; maxWait caps how long Wait blocks for a rate limit reset
// (0 means no cap).
func NewRateLimiter(minDelay, maxWait time.Duration, logger *slog.Logger) RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &githubRateLimiter{
		remaining: defaultRateLimit,
		resetTime: time.Now().Add(time.Hour),
		minDelay:  minDelay,
		maxWait:   maxWait,
		logger:    logger,
	}
}

// Wait waits until it's safe to make another API call.
// The slot is reserved under the lock and the sleep happens outside it, so
// concurrent callers queue up minDelay apart.
func (r *githubRateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	start := now

	if r.remaining <= lowRateThreshold && r.resetTime.After(now) {
		wait := r.resetTime.Sub(now)
		if r.maxWait > 0 && wait > r.maxWait {
			r.mu.Unlock()
			return apperrors.NewRateLimitedError(
				fmt.Sprintf("GitHub rate limit exhausted, resets in %v", wait.Round(time.Second)), nil)
		}
		r.logger.Warn("rate limit low, waiting for reset",
			"remaining", r.remaining, "wait", wait.Round(time.Second).String())
		start = r.resetTime
		r.remaining = defaultRateLimit
		r.resetTime = r.resetTime.Add(time.Hour)
	}

	if r.nextCall.After(start) {
		start = r.nextCall
	}
	r.nextCall = start.Add(r.minDelay)
	if r.remaining > 0 {
		r.remaining--
	}
	r.mu.Unlock()

	wait := start.Sub(now)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// CheckLimit returns the current rate limit status
func (r *githubRateLimiter) CheckLimit() (remaining int, resetTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining, r.resetTime, nil
}

// UpdateLimit updates the rate limit from API response headers
func (r *githubRateLimiter) UpdateLimit(remaining int, resetTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = remaining
	r.resetTime = resetTime
}
