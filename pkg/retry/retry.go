package retry

import (
	"context"
	"time"
)

// Policy describes a bounded fixed-delay retry budget. Retry behavior is a
// visible parameter of the call sites that use it, not a hidden wrapper.
type Policy struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts int
	// Delay is the fixed pause between attempts.
	Delay time.Duration
	// Retryable decides whether an error qualifies for another attempt.
	// A nil classifier retries every error.
	Retryable func(error) bool
}

// Do runs op until it succeeds, the budget is exhausted, the error is
// classified non-retryable, or ctx is done. The last error is returned.
func (p Policy) Do(ctx context.Context, op func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
		if err = op(); err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
	}
	return err
}
