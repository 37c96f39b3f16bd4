package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	backoff "github.com/sethvargo/go-retry"
)

// Policy runs operations with capped, jittered exponential backoff. The
// delay before attempt n is min(BaseDelay * 2^(n-1), MaxDelay) plus jitter
// of at most JitterFraction of the capped delay, unless the failed attempt
// carried a server retry-after hint, which wins outright.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	JitterFraction float64
}

// DefaultPolicy mirrors the sync engine's shipping configuration.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		BaseDelay:      500 * time.Millisecond,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.2,
	}
}

// Execute runs op until it succeeds, exhausts MaxAttempts, fails with a
// non-retryable classification, or ctx is cancelled. The delay between
// attempts never blocks anything but this call. The last error is returned
// unwrapped enough for errors.Is classification by the caller.
func (p Policy) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	delays := p.backoff()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		delay, stop := delays.Next()
		if stop {
			break
		}
		if hint := retryAfterHint(lastErr); hint > 0 {
			// Server knows better than our backoff curve.
			delay = hint
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", attempts, lastErr)
}

// backoff builds the sethvargo/go-retry generator chain: exponential base,
// capped, then jittered. Jitter is applied after the cap so the hard ceiling
// is MaxDelay * (1 + JitterFraction).
func (p Policy) backoff() backoff.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	b := backoff.NewExponential(base)
	if p.MaxDelay > 0 {
		b = backoff.WithCappedDuration(p.MaxDelay, b)
	}
	if p.JitterFraction > 0 {
		b = backoff.WithJitterPercent(uint64(p.JitterFraction*100), b)
	}
	return b
}

func retryAfterHint(err error) time.Duration {
	var ra *RetryAfterError
	if errors.As(err, &ra) {
		return ra.After
	}
	return 0
}
