package api

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy decides whether a failed attempt is retried and how long to
// wait before redispatching. The policy is stateless; attempt counting
// lives in the RequestDescriptor.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultRetryPolicy provides sensible defaults.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   30 * time.Second,
}

// ShouldRetry reports whether another attempt is allowed for the given
// error after `attempt` retries have already happened.
func (p RetryPolicy) ShouldRetry(rec *ErrorRecord, attempt int) bool {
	return attempt < p.MaxRetries && rec != nil && rec.Retryable
}

// DelayFor returns the backoff delay before retry attempt n (counted from
// 1): BaseDelay * 2^(n-1), clamped to MaxDelay. Jitter, when enabled, adds
// up to 10% on top of the deterministic floor before the clamp; below the
// clamp the doubling dominates the jitter, and at the clamp every delay is
// exactly MaxDelay, so the delay stays non-decreasing in n either way.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	d := time.Duration(delay)
	if p.Jitter {
		d += time.Duration(rand.Int63n(int64(delay)/10 + 1))
		if d > p.MaxDelay {
			d = p.MaxDelay
		}
	}
	return d
}
