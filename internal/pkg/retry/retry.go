// Package retry wraps cenkalti/backoff for the two bounded waits of the core:
// the single automatic retry after a lost compare-and-swap and the optimization lease wait.
package retry

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"

	"github.com/cenkalti/backoff/v4"
)

// OnConflict runs op and, when it fails with a ConcurrentModificationError, runs it once more
// after a short pause. Any other error is returned immediately.
func OnConflict(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(25*time.Millisecond), 1),
		ctx,
	)

	return backoff.Retry(func() error {
		if attempt > 0 {
			metrics.ConflictRetry()
		}
		attempt++

		err := op(ctx)
		if err == nil {
			return nil
		}
		if errs.IsConcurrentModification(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}

// Until polls op with exponential backoff while it returns a retryable error
// (one that matches retryable via errors.Is), giving up once maxWait has elapsed.
// A non-positive maxWait makes a single attempt.
func Until(ctx context.Context, maxWait time.Duration, retryable error, op func(ctx context.Context) error) error {
	if maxWait <= 0 {
		return op(ctx)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 20 * time.Millisecond
	eb.MaxInterval = 500 * time.Millisecond
	eb.MaxElapsedTime = maxWait

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, retryable) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(eb, ctx))
}
