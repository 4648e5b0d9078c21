package pipeline

import (
	"context"
	"time"
)

// sleep is swappable so tests can observe backoff delays.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn up to maxAttempts times, waiting baseDelay * 2^(attempt-1)
// between attempts. No jitter. Every error is retried; after the last
// attempt the last error is returned. This is the sole fault-tolerance
// primitive around outbound network calls in the pipeline.
func Retry[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(1<<(attempt-1))
			if err := sleep(ctx, delay); err != nil {
				return zero, lastErr
			}
		}
	}
	return zero, lastErr
}
