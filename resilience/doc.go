// Package resilience guards the caller-supplied fetch behind a cache miss.
//
// Each pattern wraps a well-known library:
//
//   - Retry: github.com/cenkalti/backoff/v5 with exponential, linear or
//     constant delays.
//   - CircuitBreaker: github.com/sony/gobreaker/v2, opening after a run of
//     consecutive failures.
//   - RateLimiter: golang.org/x/time/rate token bucket.
//   - Bulkhead: golang.org/x/sync/semaphore concurrency limit.
//   - Timeout: a per-attempt context deadline.
//
// Executor composes them:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRateLimiter(resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 50, Burst: 5})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5})),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 3})),
//	    resilience.WithTimeout(2*time.Second),
//	)
//
//	img, err := resilience.Do(ctx, exec, func(ctx context.Context) ([]byte, error) {
//	    return origin.Get(ctx, url)
//	})
//
// Errors from the operation pass through unchanged; rejections by a pattern
// use the sentinel errors in this package.
package resilience
