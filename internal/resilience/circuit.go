// Package resilience provides retry and circuit breaking for calls to
// external services (LLM providers, Salesforce).
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState is the state of a CircuitBreaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned for calls rejected by an open circuit.
var ErrCircuitOpen = eris.New("circuit breaker is open")

// CircuitBreakerConfig controls a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name labels log lines.
	Name string
	// FailureThreshold consecutive failures open the circuit. Default: 5.
	FailureThreshold int
	// ResetTimeout is how long the circuit stays open before a probe. Default: 30s.
	ResetTimeout time.Duration
	// ShouldTrip decides which errors count as failures. Default: any error.
	ShouldTrip func(err error) bool
}

// CircuitBreaker stops calling a failing service until ResetTimeout has
// passed, then lets one probe through.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    CircuitState
	failures int
	openedAt time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.ShouldTrip == nil {
		cfg.ShouldTrip = func(err error) bool { return err != nil }
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := ExecuteVal(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// ExecuteVal is Execute for functions that return a value.
func ExecuteVal[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if !cb.allow() {
		return zero, ErrCircuitOpen
	}
	val, err := fn(ctx)
	cb.record(err)
	return val, err
}

// State returns the current state. An open circuit whose timeout has passed
// reports half-open.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// Reset closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(CircuitClosed)
	cb.failures = 0
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != CircuitOpen {
		return true
	}
	if cb.now().Sub(cb.openedAt) >= cb.cfg.ResetTimeout {
		cb.setState(CircuitHalfOpen)
		return true
	}
	return false
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil || !cb.cfg.ShouldTrip(err) {
		cb.failures = 0
		if cb.state == CircuitHalfOpen {
			cb.setState(CircuitClosed)
		}
		return
	}

	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.cfg.FailureThreshold {
		cb.openedAt = cb.now()
		cb.setState(CircuitOpen)
	}
}

func (cb *CircuitBreaker) setState(to CircuitState) {
	if cb.state == to {
		return
	}
	zap.L().Info("circuit breaker state change",
		zap.String("breaker", cb.cfg.Name),
		zap.Stringer("from", cb.state),
		zap.Stringer("to", to),
	)
	cb.state = to
}
