package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fbinsights/pkg/config"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for pacing Graph API requests
type Limiter interface {
	// Wait blocks until a request is allowed or ctx is done
	Wait(ctx context.Context) error
}

// New builds the limiter selected by cfg. A disabled configuration yields
// Unlimited so callers never need a nil check.
func New(cfg config.RateLimitConfig) (Limiter, error) {
	if !cfg.Enabled {
		return Unlimited{}, nil
	}
	if cfg.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", cfg.RequestsPerMinute)
	}

	switch cfg.Strategy {
	case "", "token_bucket":
		return NewTokenBucket(cfg.RequestsPerMinute, time.Minute), nil
	case "sliding_window":
		return NewSlidingWindow(cfg.RequestsPerMinute, time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown rate limit strategy %q", cfg.Strategy)
	}
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

// TokenBucket allows a burst of capacity requests and then refills one
// token every refillPeriod/capacity
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a bucket allowing capacity requests per refillPeriod
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(refillPeriod/time.Duration(capacity)), capacity),
	}
}

// Wait blocks until a token is available. A deadline that ends before the
// next token is reported as context.DeadlineExceeded right away.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if err := tb.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

// SlidingWindow implements a sliding window rate limiter
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

// allow records a request if the window has room for it
func (sw *SlidingWindow) allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.allow() {
		var timeToWait time.Duration
		sw.mu.Lock()
		if len(sw.requests) > 0 {
			timeToWait = sw.windowSize - time.Since(sw.requests[0])
		}
		sw.mu.Unlock()

		if err := sleep(ctx, timeToWait); err != nil {
			return err
		}
	}
	return nil
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// sleep waits for d, with a short floor to avoid busy looping, or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		d = 10 * time.Millisecond
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
