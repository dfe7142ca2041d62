package weather

import (
	"context"
	"time"
)

// RetryPolicy bounds how often a fetch is attempted and how long to wait in between.
type RetryPolicy struct {
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number: linear, not exponential.
	BaseDelay time.Duration
	// AttemptTimeout bounds each individual attempt.
	AttemptTimeout time.Duration
}

// PolicyFor returns the retry policy for an invocation kind.
func PolicyFor(inv Invocation) RetryPolicy {
	if inv == Background {
		return RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, AttemptTimeout: 15 * time.Second}
	}
	return RetryPolicy{MaxAttempts: 2, BaseDelay: time.Second, AttemptTimeout: 10 * time.Second}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return p.BaseDelay * time.Duration(attempt)
}

// do runs fn until it succeeds, fails permanently, the attempts run out or ctx ends.
func (p RetryPolicy) do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if p.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, p.AttemptTimeout)
		}
		lastErr = fn(attemptCtx)
		cancel()

		if lastErr == nil || !retryable(lastErr) || attempt == attempts {
			return lastErr
		}

		timer := time.NewTimer(p.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}
	}
	return lastErr
}
