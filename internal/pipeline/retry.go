package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/dgallion1/lexgest/internal/extract"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *extract.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// Retry returns an extract.RetryFunc that makes up to MaxRetries attempts,
// sleeping backoff(attempt) between transient failures. Non-retryable errors
// and context cancellation end the loop at once.
func Retry(log *zap.Logger, backoff func(int) time.Duration) extract.RetryFunc {
	if backoff == nil {
		backoff = Backoff
	}
	return func(ctx context.Context, call func(context.Context) error) error {
		var err error
		for attempt := range MaxRetries {
			err = call(ctx)
			if err == nil || !IsRetryable(err) || attempt == MaxRetries-1 {
				return err
			}
			wait := backoff(attempt)
			log.Warn("retryable model error, backing off",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", wait),
				zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		return err
	}
}
