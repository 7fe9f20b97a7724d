package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	// Closed lets calls through and counts consecutive failures.
	Closed CircuitState = iota
	// Open rejects calls with ErrCircuitOpen until RecoveryTimeout passes.
	Open
	// HalfOpen lets probe calls through; one failure reopens the circuit.
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls and opens the circuit after repeated failures.
type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
	Reset()
}

type Config struct {
	FailureThreshold int           // consecutive failures before opening
	RecoveryTimeout  time.Duration // time spent open before probing
	SuccessThreshold int           // probe successes needed to close again

	// IsFailure decides whether a non-nil error counts against the circuit.
	// Errors it rejects leave the counters unchanged. Defaults to
	// IsDependencyFailure.
	IsFailure func(error) bool

	// OnStateChange runs after every transition, outside the breaker lock.
	OnStateChange func(from, to CircuitState)
}

// IsDependencyFailure reports false for a caller giving up. A cancelled
// context says nothing about the health of the guarded dependency.
func IsDependencyFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		SuccessThreshold: 2,
	}
}

type circuitBreaker struct {
	config *Config
	now    func() time.Time

	mu          sync.Mutex
	state       CircuitState
	failures    int
	successes   int
	nextAttempt time.Time
}

// NewCircuitBreaker applies DefaultConfig when config is nil. Zero thresholds
// fall back to their defaults.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}

	cfg := *config
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = defaults.SuccessThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = defaults.RecoveryTimeout
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = IsDependencyFailure
	}

	return &circuitBreaker{config: &cfg, now: time.Now, state: Closed}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	from := cb.state
	if cb.state == Open && cb.now().After(cb.nextAttempt) {
		cb.state = HalfOpen
		cb.successes = 0
	}
	allowed := cb.state != Open
	to := cb.state
	cb.mu.Unlock()

	cb.notify(from, to)

	if !allowed {
		return ErrCircuitOpen
	}

	// fn runs unlocked so slow calls do not serialize the breaker.
	err := fn()

	cb.mu.Lock()
	from = cb.state
	switch {
	case err == nil:
		cb.recordSuccess()
	case cb.config.IsFailure(err):
		cb.recordFailure()
	}
	to = cb.state
	cb.mu.Unlock()

	cb.notify(from, to)
	return err
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.state
	cb.state = Closed
	cb.failures = 0
	cb.successes = 0
	cb.mu.Unlock()

	cb.notify(from, Closed)
}

func (cb *circuitBreaker) recordFailure() {
	cb.failures++

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.open()
		}
	case HalfOpen:
		cb.open()
	}
}

func (cb *circuitBreaker) recordSuccess() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = Closed
			cb.successes = 0
		}
	}
}

func (cb *circuitBreaker) open() {
	cb.state = Open
	cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
}

func (cb *circuitBreaker) notify(from, to CircuitState) {
	if from != to && cb.config.OnStateChange != nil {
		cb.config.OnStateChange(from, to)
	}
}
