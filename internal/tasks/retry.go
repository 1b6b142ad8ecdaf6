package tasks

import (
	"context"
	"time"

	"github.com/desertthunder/ytsync/internal/services"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default [Sleeper].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy parameterizes [WithRetry].
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int, err error) time.Duration // pause after a failed attempt
	IsTerminal  func(err error) bool                       // stop retrying immediately
	OnFailure   func(attempt int, err error)               // called for every failed attempt
	Sleep       Sleeper
}

// WithRetry runs op until it succeeds, fails terminally, or MaxAttempts is reached.
//
// It returns the number of attempts made and the last error. No pause follows the final attempt.
func WithRetry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := max(policy.MaxAttempts, 1)
	sleep := policy.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = op(ctx, attempt); err == nil {
			return attempt, nil
		}

		if policy.OnFailure != nil {
			policy.OnFailure(attempt, err)
		}

		if services.IsCanceled(err) || (policy.IsTerminal != nil && policy.IsTerminal(err)) {
			return attempt, err
		}

		if attempt < maxAttempts && policy.Backoff != nil {
			if serr := sleep(ctx, policy.Backoff(attempt, err)); serr != nil {
				return attempt, serr
			}
		}
	}
	return maxAttempts, err
}

// LinearBackoff waits attempt × responseBase after an error response
// and attempt × transportBase when no response arrived.
func LinearBackoff(responseBase, transportBase time.Duration) func(int, error) time.Duration {
	return func(attempt int, err error) time.Duration {
		if services.IsTransport(err) {
			return time.Duration(attempt) * transportBase
		}
		return time.Duration(attempt) * responseBase
	}
}
