package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/objcache/resilience"
)

// ResilienceConfig selects the patterns guarding fetches. An absent section
// disables its pattern.
type ResilienceConfig struct {
	Timeout   time.Duration    `yaml:"timeout"`
	Retry     *RetryConfig     `yaml:"retry"`
	Breaker   *BreakerConfig   `yaml:"breaker"`
	RateLimit *RateLimitConfig `yaml:"rate_limit"`
	Bulkhead  *BulkheadConfig  `yaml:"bulkhead"`
}

// RetryConfig maps to resilience.RetryConfig.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier"`
	Strategy     string        `yaml:"strategy"` // exponential|linear|constant
	Jitter       bool          `yaml:"jitter"`
}

// BreakerConfig maps to resilience.CircuitBreakerConfig.
type BreakerConfig struct {
	MaxFailures         int           `yaml:"max_failures"`
	ResetTimeout        time.Duration `yaml:"reset_timeout"`
	HalfOpenMaxRequests int           `yaml:"half_open_max_requests"`
}

// RateLimitConfig maps to resilience.RateLimiterConfig.
type RateLimitConfig struct {
	Rate    float64       `yaml:"rate"`
	Burst   int           `yaml:"burst"`
	Wait    bool          `yaml:"wait"`
	MaxWait time.Duration `yaml:"max_wait"`
}

// BulkheadConfig maps to resilience.BulkheadConfig.
type BulkheadConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	MaxWait       time.Duration `yaml:"max_wait"`
}

func parseStrategy(s string) (resilience.BackoffStrategy, error) {
	switch s {
	case "", "exponential":
		return resilience.BackoffExponential, nil
	case "linear":
		return resilience.BackoffLinear, nil
	case "constant":
		return resilience.BackoffConstant, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

func (r ResilienceConfig) validate() error {
	var errs []error
	if r.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s is negative", r.Timeout))
	}
	if r.Retry != nil {
		if _, err := parseStrategy(r.Retry.Strategy); err != nil {
			errs = append(errs, err)
		}
		if r.Retry.MaxAttempts < 0 {
			errs = append(errs, fmt.Errorf("retry.max_attempts %d is negative", r.Retry.MaxAttempts))
		}
	}
	if r.RateLimit != nil && r.RateLimit.Rate < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.rate %v is negative", r.RateLimit.Rate))
	}
	if r.Bulkhead != nil && r.Bulkhead.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("bulkhead.max_concurrent %d is negative", r.Bulkhead.MaxConcurrent))
	}
	return errors.Join(errs...)
}

// ExecutorOptions lets callers hook into the patterns the configuration
// builds.
type ExecutorOptions struct {
	// Name labels the circuit breaker.
	Name string

	OnRetry       func(attempt int, err error, delay time.Duration)
	OnStateChange func(from, to resilience.State)
}

// Executor builds a resilience.Executor from the configuration. With every
// section absent it returns nil, which runs fetches directly.
func (r ResilienceConfig) Executor(opts ExecutorOptions) (*resilience.Executor, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	var layers []resilience.ExecutorOption
	if r.Timeout > 0 {
		layers = append(layers, resilience.WithTimeout(r.Timeout))
	}
	if rc := r.Retry; rc != nil {
		strategy, _ := parseStrategy(rc.Strategy)
		layers = append(layers, resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  rc.MaxAttempts,
			InitialDelay: rc.InitialDelay,
			MaxDelay:     rc.MaxDelay,
			Multiplier:   rc.Multiplier,
			Strategy:     strategy,
			Jitter:       rc.Jitter,
			OnRetry:      opts.OnRetry,
		})))
	}
	if bc := r.Breaker; bc != nil {
		layers = append(layers, resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:                opts.Name,
			MaxFailures:         bc.MaxFailures,
			ResetTimeout:        bc.ResetTimeout,
			HalfOpenMaxRequests: bc.HalfOpenMaxRequests,
			OnStateChange:       opts.OnStateChange,
		})))
	}
	if rl := r.RateLimit; rl != nil {
		layers = append(layers, resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Rate:        rl.Rate,
			Burst:       rl.Burst,
			WaitOnLimit: rl.Wait,
			MaxWait:     rl.MaxWait,
		})))
	}
	if bh := r.Bulkhead; bh != nil {
		layers = append(layers, resilience.WithBulkhead(resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: bh.MaxConcurrent,
			MaxWait:       bh.MaxWait,
		})))
	}

	if len(layers) == 0 {
		return nil, nil
	}
	return resilience.NewExecutor(layers...), nil
}
