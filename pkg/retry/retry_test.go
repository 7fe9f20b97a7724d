package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestExecute_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retried []int

	cfg := fastConfig(4)
	cfg.OnRetry = func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) }

	err := NewExponentialBackoff(cfg).Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestExecute_StopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("password authentication failed")

	err := NewExponentialBackoff(fastConfig(5)).Execute(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.False(t, IsMaxRetriesExceeded(err))
	assert.Equal(t, 1, calls)
}

func TestExecute_ReportsExhaustion(t *testing.T) {
	transient := errors.New("i/o timeout")

	err := NewExponentialBackoff(fastConfig(3)).Execute(context.Background(), func(context.Context) error {
		return transient
	})

	require.True(t, IsMaxRetriesExceeded(err))
	assert.ErrorIs(t, err, transient)
	assert.Contains(t, err.Error(), "i/o timeout")
}

func TestExecute_HonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastConfig(10)
	cfg.BaseDelay = time.Hour
	cfg.MaxDelay = time.Hour
	cfg.OnRetry = func(int, time.Duration, error) { cancel() }

	err := NewExponentialBackoff(cfg).Execute(ctx, func(context.Context) error {
		return errors.New("connection reset by peer")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelay_CapsAtMaxDelay(t *testing.T) {
	eb := NewExponentialBackoff(&Config{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2})

	assert.Equal(t, 100*time.Millisecond, eb.calculateDelay(1))
	assert.Equal(t, 200*time.Millisecond, eb.calculateDelay(2))
	assert.Equal(t, 300*time.Millisecond, eb.calculateDelay(3))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(errors.New("FATAL: the database system is starting up")))
	assert.False(t, IsTransient(errors.New("syntax error")))
	assert.False(t, IsTransient(nil))
}
