package payments

import (
	"context"
	"time"

	"eventix/internal/shared/apperrors"
	"eventix/pkg/logger"
)

type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:  3,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     2 * time.Second,
}

// retryRead runs a read-only provider call, retrying only upstream failures.
// Never use it for calls that move money or create sessions.
func retryRead[T any](ctx context.Context, policy RetryPolicy, op string, fn func() (T, error)) (T, error) {
	var zero T
	delay := policy.InitialDelay
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !apperrors.Is(err, apperrors.KindUpstreamFailure) || attempt == attempts {
			break
		}

		logger.GetDefault().WarnContext(ctx, "payment provider call failed, retrying",
			"operation", op,
			"attempt", attempt,
			"max_attempts", attempts,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}

	return zero, lastErr
}
