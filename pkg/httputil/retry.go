package httputil

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// transientError marks a failure worth another attempt.
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

// Transient marks err as retryable by [Backoff]. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return transientError{err: err}
}

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	var t transientError
	return errors.As(err, &t)
}

// Backoff retries transient failures with a doubling delay.
//
// Rate-limited errors carrying a Retry-After hint are also retried, waiting
// for the hinted delay when it fits under MaxDelay. Any other error ends
// the loop on the attempt that produced it.
type Backoff struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration // 0 means no cap
}

// DefaultBackoff is used by [NewClient] unless overridden with [WithRetry].
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second, MaxDelay: 30 * time.Second}

// Do calls fn until it succeeds, returns a permanent error, or the attempts
// run out. Cancelling ctx while waiting returns ctx.Err().
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	wait := b.Delay

	var err error
	for n := 1; ; n++ {
		if err = fn(); err == nil {
			return nil
		}
		pause, ok := b.next(err, wait)
		if !ok || n == attempts {
			return err
		}

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = b.clamp(wait * 2)
	}
}

// next decides whether err is retried and how long to pause first.
func (b Backoff) next(err error, wait time.Duration) (time.Duration, bool) {
	if IsTransient(err) {
		return b.clamp(wait), true
	}
	var rl *apperrors.RateLimitedError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		hint := time.Duration(rl.RetryAfter) * time.Second
		if b.MaxDelay > 0 && hint > b.MaxDelay {
			return 0, false
		}
		return hint, true
	}
	return 0, false
}

func (b Backoff) clamp(d time.Duration) time.Duration {
	if b.MaxDelay > 0 && d > b.MaxDelay {
		return b.MaxDelay
	}
	return d
}
