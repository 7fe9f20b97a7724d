package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestBreaker(t *testing.T, cfg *Config) (*circuitBreaker, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cb, ok := NewCircuitBreaker(cfg).(*circuitBreaker)
	require.True(t, ok)
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(t, &Config{FailureThreshold: 3, RecoveryTimeout: time.Minute, SuccessThreshold: 1})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	}

	assert.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_IgnoresCallerCancellation(t *testing.T) {
	cb, clock := newTestBreaker(t, &Config{FailureThreshold: 2, RecoveryTimeout: time.Minute, SuccessThreshold: 1})

	cancelled := fmt.Errorf("insert: %w", context.Canceled)
	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return cancelled }), context.Canceled)
	}
	assert.Equal(t, Closed, cb.State())

	// A cancellation between two real failures does not reset the count.
	require.Error(t, cb.Call(func() error { return errBoom }))
	require.Error(t, cb.Call(func() error { return cancelled }))
	require.Error(t, cb.Call(func() error { return errBoom }))
	assert.Equal(t, Open, cb.State())

	// In half-open a cancellation neither closes nor reopens the circuit.
	clock.Advance(time.Minute + time.Second)
	require.Error(t, cb.Call(func() error { return cancelled }))
	assert.Equal(t, HalfOpen, cb.State())
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_DeadlineExceededCounts(t *testing.T) {
	cb, _ := newTestBreaker(t, &Config{FailureThreshold: 1, RecoveryTimeout: time.Minute, SuccessThreshold: 1})

	require.Error(t, cb.Call(func() error { return context.DeadlineExceeded }))
	assert.Equal(t, Open, cb.State())
}

func TestCircuitBreaker_CustomFailurePredicate(t *testing.T) {
	errExpected := errors.New("duplicate")
	cb, _ := newTestBreaker(t, &Config{
		FailureThreshold: 1,
		RecoveryTimeout:  time.Minute,
		SuccessThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, errExpected) },
	})

	require.Error(t, cb.Call(func() error { return errExpected }))
	assert.Equal(t, Closed, cb.State())
	require.Error(t, cb.Call(func() error { return errBoom }))
	assert.Equal(t, Open, cb.State())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(t, &Config{FailureThreshold: 2, RecoveryTimeout: time.Minute, SuccessThreshold: 1})

	_ = cb.Call(func() error { return errBoom })
	_ = cb.Call(func() error { return nil })
	_ = cb.Call(func() error { return errBoom })

	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(t, &Config{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Second,
		SuccessThreshold: 2,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Call(func() error { return errBoom })
	require.Equal(t, Open, cb.State())

	clock.Advance(11 * time.Second)
	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, HalfOpen, cb.State())

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, Closed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(t, &Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 1})

	_ = cb.Call(func() error { return errBoom })
	clock.Advance(2 * time.Second)

	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, Open, cb.State())
	assert.ErrorIs(t, cb.Call(func() error { return nil }), ErrCircuitOpen)
}

func TestCircuitBreaker_ResetAndDefaults(t *testing.T) {
	cb, _ := newTestBreaker(t, &Config{FailureThreshold: 1})
	assert.Equal(t, DefaultConfig().SuccessThreshold, cb.config.SuccessThreshold)
	assert.Equal(t, DefaultConfig().RecoveryTimeout, cb.config.RecoveryTimeout)

	_ = cb.Call(func() error { return errBoom })
	require.Equal(t, Open, cb.State())

	cb.Reset()
	assert.Equal(t, Closed, cb.State())
	assert.NoError(t, cb.Call(func() error { return nil }))
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", Closed.String())
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "half_open", HalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}
