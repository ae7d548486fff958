package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/resilience"
)

// StatsSource exposes a cache snapshot. *cache.Cache satisfies it.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures CacheChecker.
type CacheCheckerConfig struct {
	// Name is the checker name. Default: "cache:" + the cache's name.
	Name string

	// MinHitRatio reports degraded when the hit ratio falls below it after
	// MinLookups lookups. Zero disables the check.
	MinHitRatio float64

	// MinLookups is the sample size MinHitRatio needs. Default: 100
	MinLookups uint64
}

// CacheChecker reports on one cache.
//
// A full cache is normal for a bounded store and is not reported. The check
// fails when the resident key set and the store disagree, which means an
// eviction path skipped the key tracker.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker over src.
func NewCacheChecker(src StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.Name == "" {
		name := src.Stats().Name
		if name == "" {
			name = "default"
		}
		config.Name = "cache:" + name
	}
	if config.MinLookups == 0 {
		config.MinLookups = 100
	}
	return &CacheChecker{source: src, config: config}
}

// Name returns the checker name.
func (c *CacheChecker) Name() string {
	return c.config.Name
}

// Check inspects a stats snapshot.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}

	s := c.source.Stats()
	details := map[string]any{
		"entries":     s.Entries,
		"resident":    s.Resident,
		"max_entries": s.MaxEntries,
		"hits":        s.Hits,
		"misses":      s.Misses,
		"hit_ratio":   s.HitRatio(),
		"evictions":   s.TotalEvictions(),
	}

	if !s.Consistent() {
		msg := fmt.Sprintf("resident keys %d, stored entries %d", s.Resident, s.Entries)
		return Unhealthy(msg, ErrResidentMismatch).WithDetails(details)
	}

	if c.config.MinHitRatio > 0 && s.Hits+s.Misses >= c.config.MinLookups && s.HitRatio() < c.config.MinHitRatio {
		msg := fmt.Sprintf("hit ratio %.2f below %.2f", s.HitRatio(), c.config.MinHitRatio)
		return Degraded(msg).WithDetails(details)
	}

	return Healthy(fmt.Sprintf("%d/%d entries", s.Entries, s.MaxEntries)).WithDetails(details)
}

// BreakerChecker reports on the circuit breaker guarding a cache's fetches.
// Open is unhealthy, half-open is degraded.
type BreakerChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewBreakerChecker creates a checker over cb.
func NewBreakerChecker(name string, cb *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: cb}
}

// Name returns the checker name.
func (b *BreakerChecker) Name() string {
	return b.name
}

// Check reports the breaker state.
func (b *BreakerChecker) Check(context.Context) Result {
	m := b.breaker.Metrics()
	details := map[string]any{
		"state":                m.State.String(),
		"consecutive_failures": m.ConsecutiveFailures,
		"total_failures":       m.TotalFailures,
	}

	switch m.State {
	case resilience.StateOpen:
		return Unhealthy("fetches rejected", ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("probing origin").WithDetails(details)
	default:
		return Healthy("closed").WithDetails(details)
	}
}

var (
	_ Checker = (*CacheChecker)(nil)
	_ Checker = (*BreakerChecker)(nil)
)
