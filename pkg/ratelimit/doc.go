// Package ratelimit paces outgoing Graph API requests.
//
// Facebook applies per-app and per-page call budgets. A run issues a small,
// bounded number of requests, so pacing is off by default and only turned on
// through configuration when a page shares its budget with other tools.
//
// Available Implementations:
//
// Token Bucket:
//   - golang.org/x/time/rate limiter with a burst of the full allowance
//   - Refills continuously, one token every period/capacity
//
// Sliding Window:
//   - Tracks requests within a moving time window
//   - Spreads requests evenly once the window is full
//
// Unlimited:
//   - Returned by New when rate limiting is disabled
//
// Usage:
//
//	limiter, err := ratelimit.New(cfg.RateLimit)
//	if err != nil {
//	    return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//	    return err // context cancelled
//	}
package ratelimit
