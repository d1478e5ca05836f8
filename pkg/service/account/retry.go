package account

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/onlinebank/pkg/domain"
	"github.com/cenkalti/backoff/v4"
)

const (
	defaultRetryInterval = 10 * time.Millisecond
	maxRetryInterval     = 500 * time.Millisecond
)

func (s *Service) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.RetryInterval
	if b.InitialInterval <= 0 {
		b.InitialInterval = defaultRetryInterval
	}
	b.MaxInterval = maxRetryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.MaxRetries), ctx)
}

// retry runs fn until it succeeds, fails with an error retryable rejects, or
// the retry bound is reached. Exhaustion is reported as domain.ErrRetryExhausted
// wrapping the last error.
func (s *Service) retry(
	ctx context.Context,
	logger *slog.Logger,
	op string,
	retryable func(error) bool,
	fn func() error,
) error {
	attempts := 0
	err := backoff.Retry(func() error {
		attempts++
		err := fn()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		logger.Warn(op+" retrying", "attempt", attempts, "error", err)
		return err
	}, s.newBackOff(ctx))
	if err != nil && retryable(err) {
		return fmt.Errorf("%w after %d attempts: %w", domain.ErrRetryExhausted, attempts, err)
	}
	return err
}
