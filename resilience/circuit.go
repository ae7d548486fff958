package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed passes calls through.
	StateClosed State = iota
	// StateOpen rejects calls with ErrCircuitOpen.
	StateOpen
	// StateHalfOpen admits a limited number of probe calls.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// CircuitBreakerConfig configures CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name labels the breaker in state-change callbacks.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// circuit. Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before probing.
	// Default: 30s
	ResetTimeout time.Duration

	// HalfOpenMaxRequests bounds probe calls while half-open. Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called when the circuit changes state.
	OnStateChange func(from, to State)

	// IsFailure reports whether err counts against the circuit.
	// Default: every non-nil error except context cancellation.
	IsFailure func(err error) bool
}

// CircuitBreaker stops calling a failing fetch until it has had time to
// recover.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	cb     atomic.Pointer[gobreaker.CircuitBreaker[struct{}]]
}

// NewCircuitBreaker creates a CircuitBreaker, applying defaults to zero fields.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}

	b := &CircuitBreaker{config: config}
	b.cb.Store(gobreaker.NewCircuitBreaker[struct{}](b.settings()))
	return b
}

func (b *CircuitBreaker) settings() gobreaker.Settings {
	maxFailures := uint32(b.config.MaxFailures)
	return gobreaker.Settings{
		Name:        b.config.Name,
		MaxRequests: uint32(b.config.HalfOpenMaxRequests),
		Timeout:     b.config.ResetTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return !b.config.IsFailure(err)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if b.config.OnStateChange != nil {
				b.config.OnStateChange(fromGobreaker(from), fromGobreaker(to))
			}
		},
	}
}

// Execute runs op unless the circuit is open.
// Rejections return ErrCircuitOpen; op's own error is returned unchanged.
func (b *CircuitBreaker) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := b.cb.Load().Execute(func() (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State returns the current state.
func (b *CircuitBreaker) State() State {
	return fromGobreaker(b.cb.Load().State())
}

// Reset closes the circuit and clears its counts.
func (b *CircuitBreaker) Reset() {
	old := b.cb.Swap(gobreaker.NewCircuitBreaker[struct{}](b.settings()))
	from := fromGobreaker(old.State())
	if from != StateClosed && b.config.OnStateChange != nil {
		b.config.OnStateChange(from, StateClosed)
	}
}

// Metrics returns current counts.
func (b *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb := b.cb.Load()
	c := cb.Counts()
	return CircuitBreakerMetrics{
		State:               fromGobreaker(cb.State()),
		Requests:            c.Requests,
		ConsecutiveFailures: c.ConsecutiveFailures,
		TotalFailures:       c.TotalFailures,
		TotalSuccesses:      c.TotalSuccesses,
	}
}

// CircuitBreakerMetrics is a snapshot of breaker counts for the current
// generation.
type CircuitBreakerMetrics struct {
	State               State
	Requests            uint32
	ConsecutiveFailures uint32
	TotalFailures       uint32
	TotalSuccesses      uint32
}
