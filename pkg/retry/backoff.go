package retry

import (
	"context"
	"math/rand"
	"time"

	errs "fbinsights/pkg/errors"
)

// Backoff computes the wait before retry number attempt (1-based)
type Backoff interface {
	Next(attempt int) time.Duration
}

// ExponentialBackoff multiplies BaseDelay by Multiplier per attempt, caps it
// at MaxDelay and then spreads it by up to ±JitterFactor
type ExponentialBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// Next implements Backoff
func (b *ExponentialBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	d := float64(b.BaseDelay)
	for i := 1; i < attempt && (b.MaxDelay <= 0 || d < float64(b.MaxDelay)); i++ {
		d *= b.Multiplier
	}
	if b.MaxDelay > 0 && d > float64(b.MaxDelay) {
		d = float64(b.MaxDelay)
	}

	if b.JitterFactor > 0 {
		d += d * b.JitterFactor * (2*rand.Float64() - 1)
	}
	return time.Duration(max(d, 0))
}

// ConstantBackoff waits the same Delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

// Next implements Backoff
func (b *ConstantBackoff) Next(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Delay
}

// Policy picks a Backoff by the type of the failed request's error.
// Types without an entry, and errors that carry no type, use Fallback.
type Policy struct {
	ByType   map[errs.ErrorType]Backoff
	Fallback Backoff
}

// GraphPolicy builds the Policy used against the Graph API. Throttling
// (codes 4, 17, 32 and 613) is counted over a rolling hour, so it waits
// far longer than transport and server failures, which use base.
func GraphPolicy(base Backoff) *Policy {
	return &Policy{
		ByType: map[errs.ErrorType]Backoff{
			errs.ErrorTypeRateLimit: &ExponentialBackoff{
				BaseDelay:    30 * time.Second,
				MaxDelay:     5 * time.Minute,
				Multiplier:   2,
				JitterFactor: 0.2,
			},
			errs.ErrorTypeNetwork:     base,
			errs.ErrorTypeServerError: base,
		},
		Fallback: base,
	}
}

// For returns the Backoff for errors of type t
func (p *Policy) For(t errs.ErrorType) Backoff {
	if b, ok := p.ByType[t]; ok && b != nil {
		return b
	}
	return p.Fallback
}

// Wait sleeps for delay or until ctx is done, whichever comes first
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
