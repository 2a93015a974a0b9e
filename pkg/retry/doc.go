// Package retry provides backoff and retry logic for transient Graph API
// failures.
//
// Retries are opt-in. A run with the default configuration sends each
// request exactly once and surfaces failures as they happen, which is what
// NoRetry and FromConfig with a disabled section return.
//
// Features:
// Backoff is exponential with jitter, or constant in tests. GraphPolicy
// waits much longer after Graph API throttling than after transport or
// server failures. Waiting between attempts stops when the context is
// cancelled.
//
// Basic usage:
//
//	cfg := retry.FromConfig(appConfig.Retry, log)
//	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
//		return fetch()
//	}, cfg)
//
// Error Type Handling:
//
// DefaultRetryIf retries network, rate limit and server errors. Auth and
// not-found responses are returned immediately, as are context errors.
package retry
