package dbx

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/ogpblog/internal/common"
	"github.com/dmitrijs2005/ogpblog/internal/logging"
)

const (
	DefaultMaxAttempts     = 3
	DefaultBaseDelay       = time.Second
	DefaultMaxDelay        = 10 * time.Second
	DefaultTxMaxDelay      = 8 * time.Second
	DefaultConflictRetries = 2
	DefaultConflictDelay   = 200 * time.Millisecond
)

// Retrier re-runs an operation that failed with a retryable classification.
//
// Two retry counters are kept per call:
//   - transient failures back off exponentially, BaseDelay × 2^(n-1) capped at
//     MaxDelay, and give up once MaxAttempts of them have been observed;
//   - retryable conflicts (deadlocks, serialization failures) wait
//     ConflictDelay × n and give up after ConflictRetries retries. They do not
//     consume MaxAttempts.
//
// Everything else is returned on first occurrence. A Retrier holds no per-call
// state and is safe for concurrent use.
type Retrier struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ConflictRetries int
	ConflictDelay   time.Duration

	logger logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

type RetryOption func(*Retrier)

func WithMaxAttempts(n int) RetryOption {
	return func(r *Retrier) { r.MaxAttempts = n }
}

func WithBaseDelay(d time.Duration) RetryOption {
	return func(r *Retrier) { r.BaseDelay = d }
}

func WithMaxDelay(d time.Duration) RetryOption {
	return func(r *Retrier) { r.MaxDelay = d }
}

func WithConflictPolicy(retries int, delay time.Duration) RetryOption {
	return func(r *Retrier) {
		r.ConflictRetries = retries
		r.ConflictDelay = delay
	}
}

// WithSleep replaces the wait function; tests use it to record delays
// instead of sleeping.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retrier) { r.sleep = fn }
}

func NewRetrier(l logging.Logger, opts ...RetryOption) *Retrier {
	r := &Retrier{
		MaxAttempts:     DefaultMaxAttempts,
		BaseDelay:       DefaultBaseDelay,
		MaxDelay:        DefaultMaxDelay,
		ConflictRetries: DefaultConflictRetries,
		ConflictDelay:   DefaultConflictDelay,
		logger:          l.With("module", "retry"),
		sleep:           sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.MaxAttempts < 1 {
		r.MaxAttempts = 1
	}
	if r.ConflictRetries < 0 {
		r.ConflictRetries = 0
	}
	return r
}

// Backoff returns the wait before the retry that follows the n-th transient
// failure (n starts at 1).
func (r *Retrier) Backoff(n int) time.Duration {
	d := r.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= r.MaxDelay || d <= 0 {
			return r.MaxDelay
		}
	}
	if d > r.MaxDelay {
		return r.MaxDelay
	}
	return d
}

// Retry runs op until it succeeds or the retry policy gives up, in which case
// the last error op returned is returned unchanged. op must be safe to invoke
// more than once.
func Retry[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	transientFailures := 0
	conflictRetries := 0

	for attempt := 1; ; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}

		var wait time.Duration
		kind := common.KindOf(err)

		switch {
		case kind == common.KindConflict && common.IsRetryable(err):
			if conflictRetries >= r.ConflictRetries {
				r.logger.Error(ctx, "operation failed after conflict retries", "attempts", attempt, "error", err.Error())
				return zero, err
			}
			conflictRetries++
			wait = r.ConflictDelay * time.Duration(conflictRetries)
			r.logger.Warn(ctx, "conflict detected, retrying", "attempt", attempt, "conflict_retry", conflictRetries, "max_conflict_retries", r.ConflictRetries, "error", err.Error())

		case kind == common.KindTransient:
			transientFailures++
			if transientFailures >= r.MaxAttempts {
				r.logger.Error(ctx, "operation failed", "attempts", attempt, "error", err.Error())
				return zero, err
			}
			wait = r.Backoff(transientFailures)
			r.logger.Warn(ctx, "operation failed, retrying", "attempt", transientFailures, "max_attempts", r.MaxAttempts, "wait", wait, "error", err.Error())

		default:
			r.logger.Error(ctx, "operation failed", "attempts", attempt, "kind", kind.String(), "error", err.Error())
			return zero, err
		}

		if serr := r.sleep(ctx, wait); serr != nil {
			return zero, errors.Join(err, serr)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
