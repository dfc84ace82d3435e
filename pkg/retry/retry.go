// Package retry provides a small, explicit retry policy with a fixed backoff.
//
// It replaces ad-hoc retry loops around transport calls with a parameterized
// policy that is testable by injecting a fake sleep function.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidAttempts is returned when a policy is built with attempts < 1.
var ErrInvalidAttempts = errors.New("retry: max attempts must be at least 1")

// SleepFunc suspends the caller between attempts. It must honor ctx
// cancellation and return ctx.Err() when interrupted.
type SleepFunc func(ctx context.Context, d time.Duration) error

// sleep is the default SleepFunc backed by a real timer.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy retries an operation a bounded number of times with a fixed delay
// between attempts. The zero value is not usable; construct with New.
type Policy struct {
	maxAttempts int
	backoff     time.Duration
	sleep       SleepFunc
}

// Option configures a Policy.
type Option func(*Policy)

// WithSleep overrides the sleep implementation, primarily for tests.
func WithSleep(fn SleepFunc) Option {
	return func(p *Policy) {
		if fn != nil {
			p.sleep = fn
		}
	}
}

// New creates a retry policy with the given attempt budget and fixed backoff.
func New(maxAttempts int, backoff time.Duration, opts ...Option) (*Policy, error) {
	if maxAttempts < 1 {
		return nil, ErrInvalidAttempts
	}

	p := &Policy{
		maxAttempts: maxAttempts,
		backoff:     backoff,
		sleep:       sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Do invokes fn until it succeeds or the attempt budget is exhausted.
// The last error is returned wrapped with the attempt count. Context
// cancellation aborts the wait between attempts and surfaces ctx.Err().
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < p.maxAttempts && p.backoff > 0 {
			if err := p.sleep(ctx, p.backoff); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("retry: %d attempts exhausted: %w", p.maxAttempts, lastErr)
}
