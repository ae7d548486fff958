// Package health reports whether caches and their fetch paths are fit to
// serve.
//
// A Checker reports a Status: healthy, degraded or unhealthy. CacheChecker
// verifies that a cache's resident key set matches its store and optionally
// flags a low hit ratio. BreakerChecker reports the circuit breaker that
// guards a cache's origin.
//
// # Aggregating
//
//	agg := health.NewAggregator(health.AggregatorConfig{Timeout: 2 * time.Second})
//	agg.RegisterChecker(health.NewCacheChecker(c, health.CacheCheckerConfig{}))
//	agg.RegisterChecker(health.NewBreakerChecker("origin", exec.CircuitBreaker()))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// /healthz always answers OK. /readyz and /health answer 503 only when some
// check is unhealthy; degraded still serves.
package health
