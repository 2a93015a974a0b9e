package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fbinsights/pkg/config"
	errs "fbinsights/pkg/errors"
	"fbinsights/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff computes the wait between attempts
	Backoff Backoff
	// Policy, when set, overrides Backoff for typed Graph API errors
	Policy *Policy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns a retry configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     &ExponentialBackoff{BaseDelay: time.Second, MaxDelay: time.Minute, Multiplier: 2, JitterFactor: 0.1},
		RetryIf:     DefaultRetryIf,
		Logger:      logger.GetLogger(),
	}
}

// NoRetry returns a configuration that runs an operation exactly once
func NoRetry() *Config {
	return &Config{
		MaxAttempts: 1,
		Backoff:     &ConstantBackoff{},
		RetryIf:     func(error) bool { return false },
	}
}

// FromConfig builds a retry configuration from the application settings.
// A disabled section yields NoRetry.
func FromConfig(cfg config.RetryConfig, log logger.Logger) *Config {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return NoRetry()
	}

	base := &ExponentialBackoff{
		BaseDelay:    cfg.BaseDelay,
		MaxDelay:     cfg.MaxDelay,
		Multiplier:   cfg.Multiplier,
		JitterFactor: cfg.JitterFactor,
	}
	return &Config{
		MaxAttempts: cfg.MaxAttempts,
		Backoff:     base,
		Policy:      GraphPolicy(base),
		RetryIf:     DefaultRetryIf,
		Logger:      log,
	}
}

// DefaultRetryIf is the default retry predicate
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}

	// Default to retrying unknown errors
	return true
}

// Do executes an operation with retry logic
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) {
			return err
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			// A single-attempt budget hands the error back untouched
			if cfg.MaxAttempts == 1 {
				return err
			}
			if cfg.Logger != nil {
				cfg.Logger.ErrorWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt,
					"last_error": err.Error(),
				})
			}
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		delay := cfg.delayFor(attempt, err)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.WarnWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(ctx, delay); err != nil {
			if cfg.Logger != nil {
				cfg.Logger.WarnWithFields("retry cancelled", map[string]interface{}{
					"attempt": attempt,
					"reason":  err.Error(),
				})
			}
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(ctx, func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}

func (c *Config) delayFor(attempt int, err error) time.Duration {
	b := c.Backoff
	var apiErr *errs.Error
	if c.Policy != nil && errors.As(err, &apiErr) {
		b = c.Policy.For(apiErr.Type)
	}
	if b == nil {
		return 0
	}
	return b.Next(attempt)
}
