package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-io/herald/pkg/retry"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects zero attempts", func(t *testing.T) {
		t.Parallel()

		p, err := retry.New(0, time.Second)
		assert.ErrorIs(t, err, retry.ErrInvalidAttempts)
		assert.Nil(t, p)
	})

	t.Run("valid policy", func(t *testing.T) {
		t.Parallel()

		p, err := retry.New(3, time.Second)
		require.NoError(t, err)
		require.NotNil(t, p)
	})
}

func TestPolicy_Do(t *testing.T) {
	t.Parallel()

	t.Run("succeeds first attempt without sleeping", func(t *testing.T) {
		t.Parallel()

		slept := 0
		p, err := retry.New(3, 2*time.Second, retry.WithSleep(func(ctx context.Context, d time.Duration) error {
			slept++
			return nil
		}))
		require.NoError(t, err)

		calls := 0
		err = p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, slept)
	})

	t.Run("retries with fixed backoff until success", func(t *testing.T) {
		t.Parallel()

		var delays []time.Duration
		p, err := retry.New(3, 2*time.Second, retry.WithSleep(func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}))
		require.NoError(t, err)

		calls := 0
		err = p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, delays)
	})

	t.Run("exhausts attempts and wraps last error", func(t *testing.T) {
		t.Parallel()

		p, err := retry.New(3, time.Second, retry.WithSleep(noSleep))
		require.NoError(t, err)

		sentinel := errors.New("connection refused")
		calls := 0
		err = p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return sentinel
		})
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("cancelled context aborts between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		p, err := retry.New(5, time.Second, retry.WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}))
		require.NoError(t, err)

		calls := 0
		err = p.Do(ctx, func(ctx context.Context) error {
			calls++
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
