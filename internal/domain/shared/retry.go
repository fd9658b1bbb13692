package shared

import (
	"context"
	"time"
)

// RetryPolicy controls retries of read-only operations
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}
}

// RetryRead runs fn until it succeeds, returns a non-storage error, or the
// attempts are exhausted. The backoff doubles between attempts.
// Only use it for operations without side effects.
func RetryRead[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.Backoff

	var (
		result T
		err    error
	)
	for i := 0; i < attempts; i++ {
		result, err = fn(ctx)
		if err == nil || !IsKind(err, KindStorage) {
			return result, err
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return result, err
		case <-timer.C:
		}
		delay *= 2
	}
	return result, err
}
