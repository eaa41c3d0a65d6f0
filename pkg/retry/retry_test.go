package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetrier(opts ...Option) *Retrier {
	base := []Option{WithMaxAttempts(3), WithInitialDelay(time.Millisecond), WithJitter(0)}
	return New(append(base, opts...)...)
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := fastRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryableErrorIsRetried(t *testing.T) {
	calls := 0
	err := fastRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return Retryable(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_PlainErrorIsNotRetriedByDefault(t *testing.T) {
	calls := 0
	cause := errors.New("broken")
	err := fastRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("constraint violation")
	// RetryIf would retry everything; Permanent must still win.
	err := fastRetrier(WithRetryIf(func(error) bool { return true })).Do(
		context.Background(), func(context.Context) error {
			calls++
			return Permanent(cause)
		})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustedAttemptsReturnsCause(t *testing.T) {
	calls := 0
	cause := errors.New("still failing")
	err := fastRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		return Retryable(cause)
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 3, calls)
}

func TestDo_RetryIfOverridesDefaultPolicy(t *testing.T) {
	calls := 0
	err := fastRetrier(WithRetryIf(func(error) bool { return true })).Do(
		context.Background(), func(context.Context) error {
			calls++
			if calls < 2 {
				return errors.New("plain but retried")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDo_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	cause := errors.New("transient")
	err := fastRetrier().Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return Retryable(cause)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDatabaseRetrier_RetriesAnythingButPermanent(t *testing.T) {
	calls := 0
	err := DatabaseRetrier().Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIsPermanentAndIsRetryable(t *testing.T) {
	cause := errors.New("x")

	assert.True(t, IsPermanent(Permanent(cause)))
	assert.False(t, IsPermanent(Retryable(cause)))
	assert.True(t, IsRetryable(Retryable(cause)))
	assert.False(t, IsRetryable(cause))
	assert.NoError(t, Permanent(nil))
	assert.NoError(t, Retryable(nil))
}
