package server

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/auri-app/auri/pkg/errors"
)

// userLimiter keeps one token bucket per user. A nil *userLimiter allows
// everything.
type userLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// newUserLimiter allows perMinute requests per user with the given burst.
// It returns nil when perMinute is not positive.
func newUserLimiter(perMinute float64, burst int) *userLimiter {
	if perMinute <= 0 {
		return nil
	}
	return &userLimiter{
		limit:   rate.Limit(perMinute / 60),
		burst:   max(burst, 1),
		buckets: make(map[string]*rate.Limiter),
	}
}

func (l *userLimiter) bucket(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[userID]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[userID] = b
	}
	return b
}

// allow takes a token for userID at now, or returns a RateLimitedError
// carrying the whole seconds until the next token.
func (l *userLimiter) allow(userID string, now time.Time) error {
	if l == nil {
		return nil
	}
	r := l.bucket(userID).ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	r.CancelAt(now)
	return &apperrors.RateLimitedError{
		RetryAfter: int(math.Ceil(delay.Seconds())),
		Message:    "analysis rate limit reached",
	}
}
