// Package retry provides a bounded retry policy with exponential backoff and
// jitter, shared by every external AI call site.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy describes how a call is retried. The zero value is not usable;
// construct with Default or fill every field.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the backoff base: delay = BaseDelay * 2^attempt + jitter.
	BaseDelay time.Duration

	// MaxJitter bounds the random component added to each delay.
	MaxJitter time.Duration

	// Retryable decides whether an error is worth another attempt.
	// A nil predicate retries everything.
	Retryable func(error) bool
}

// Default returns the policy used across the service: 3 attempts,
// exponential backoff from 1s with up to 1s of jitter.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxJitter:   time.Second,
		Retryable:   retryable,
	}
}

// Do runs fn under the policy. It returns nil on the first success, the last
// error once attempts are exhausted, and immediately on a non-retryable
// error. Waits are context-aware so a cancelled caller never blocks on
// backoff sleep.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := p.wait(ctx, attempt-1); err != nil {
				return err
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (p Policy) wait(ctx context.Context, attempt int) error {
	delay := p.BaseDelay * (1 << attempt)
	if p.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
