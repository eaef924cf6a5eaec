package feed

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// #region policy

// RetryPolicy decides whether a dropped feed is reconnected and after how long.
type RetryPolicy struct {
	MaxRetries int           // consecutive failures allowed; 0 means never retry
	Backoff    time.Duration // delay before the first retry
	MaxBackoff time.Duration // cap for the doubling delay
}

// DefaultRetryPolicy retries five times, from one second up to thirty.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 5, Backoff: time.Second, MaxBackoff: 30 * time.Second}
}

// ShouldRetry returns whether to retry after failures consecutive failures,
// and the delay to wait first.
func (p RetryPolicy) ShouldRetry(failures int) (bool, time.Duration) {
	if failures <= 0 || failures > p.MaxRetries {
		return false, 0
	}
	delay := p.Backoff
	for i := 1; i < failures; i++ {
		delay *= 2
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			return true, p.MaxBackoff
		}
	}
	return true, delay
}

// #endregion policy

// #region run-with-retry

// RunWithRetry calls run until it returns nil, ctx is done, or the policy
// gives up. A run that delivered at least one batch resets the failure count;
// delivered is cleared before every attempt.
func RunWithRetry(ctx context.Context, logger *zap.Logger, p RetryPolicy, run func(ctx context.Context, delivered *bool) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	failures := 0
	for {
		delivered := false
		err := run(ctx, &delivered)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if delivered {
			failures = 0
		}
		failures++

		retry, delay := p.ShouldRetry(failures)
		if !retry {
			return err
		}
		logger.Warn("feed dropped, reconnecting",
			zap.Error(err),
			zap.Int("attempt", failures),
			zap.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
	}
}

// ErrFeedClosed is returned by a run func when the upstream ended the stream
// but the host still wants a reconnect.
var ErrFeedClosed = errors.New("feed closed by upstream")

// #endregion run-with-retry
