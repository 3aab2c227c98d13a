package summarizer

import (
	"context"
	"time"
)

const (
	defaultRetryBaseDelay = 2 * time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// RetryPolicy bounds automatic retries of transient failures
// (ModelLoading, RateLimited, NetworkError). MaxAttempts <= 1 disables them.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

// shouldRetry reports whether another attempt is allowed after the given
// 1-based attempt produced out.
func (p RetryPolicy) shouldRetry(attempt int, out Outcome) bool {
	return !out.OK() && out.Failure.Kind.Transient() && attempt < p.attempts()
}

// delay returns how long to wait before the attempt following the given one.
// An upstream hint wins over exponential backoff; both are capped.
func (p RetryPolicy) delay(attempt int, out Outcome) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultRetryBaseDelay
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultRetryMaxDelay
	}

	if out.Failure != nil && out.Failure.RetryAfter > 0 {
		return min(out.Failure.RetryAfter, maxDelay)
	}

	d := base
	for i := 1; i < attempt && d < maxDelay; i++ {
		d *= 2
	}

	return min(d, maxDelay)
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
