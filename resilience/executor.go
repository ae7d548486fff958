package resilience

import (
	"context"
	"sync"
	"time"
)

// Op is a unit of work guarded by the executor.
type Op func(ctx context.Context) error

// layer is one resilience pattern in the chain.
type layer interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

// Executor composes resilience patterns around a fetch.
//
// Layers run outermost first: rate limiter, bulkhead, circuit breaker,
// retry, timeout. The timeout therefore bounds each attempt, and the breaker
// counts one failure per exhausted retry sequence.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	rateLimiter    *RateLimiter
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an Executor. With no options it runs ops directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry adds retries.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithRateLimiter adds rate limiting.
func WithRateLimiter(rl *RateLimiter) ExecutorOption {
	return func(e *Executor) { e.rateLimiter = rl }
}

// WithBulkhead adds a concurrency limit.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithTimeout bounds each attempt by d.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.timeout = NewTimeout(TimeoutConfig{Timeout: d}) }
}

// WithTimeoutConfig adds a preconfigured Timeout.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	if e == nil {
		return nil
	}
	return e.circuitBreaker
}

// layers returns the configured patterns innermost first.
func (e *Executor) layers() []layer {
	var ls []layer
	if e.timeout != nil {
		ls = append(ls, e.timeout)
	}
	if e.retry != nil {
		ls = append(ls, e.retry)
	}
	if e.circuitBreaker != nil {
		ls = append(ls, e.circuitBreaker)
	}
	if e.bulkhead != nil {
		ls = append(ls, e.bulkhead)
	}
	if e.rateLimiter != nil {
		ls = append(ls, e.rateLimiter)
	}
	return ls
}

// Execute runs op through every configured pattern. A nil Executor runs op
// directly.
func (e *Executor) Execute(ctx context.Context, op Op) error {
	if e == nil {
		return op(ctx)
	}

	run := func(ctx context.Context) error { return op(ctx) }
	for _, l := range e.layers() {
		inner, l := run, l
		run = func(ctx context.Context) error {
			return l.Execute(ctx, inner)
		}
	}
	return run(ctx)
}

// Do runs fn through e and returns its value.
// An attempt abandoned by a timeout may still finish in the background, so
// results are guarded.
func Do[T any](ctx context.Context, e *Executor, fn func(context.Context) (T, error)) (T, error) {
	var (
		mu     sync.Mutex
		result T
	)
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		mu.Lock()
		result = v
		mu.Unlock()
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	mu.Lock()
	defer mu.Unlock()
	return result, nil
}
