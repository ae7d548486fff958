package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/health"
	"github.com/jonwraymond/objcache/observe"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid")

	// ErrUnknownStrategy indicates an unrecognised retry strategy.
	ErrUnknownStrategy = errors.New("config: unknown retry strategy")
)

// Config is the root configuration document.
type Config struct {
	Cache      CacheConfig               `yaml:"cache"`
	Observe    observe.Config            `yaml:"observe"`
	Resilience ResilienceConfig          `yaml:"resilience"`
	Health     HealthConfig              `yaml:"health"`
	Auth       *AuthConfig               `yaml:"auth"`
	Secrets    map[string]map[string]any `yaml:"secrets"`
}

// CacheConfig maps to cache.Config.
type CacheConfig struct {
	Name          string        `yaml:"name"`
	EntryLifetime time.Duration `yaml:"entry_lifetime"`
	MaxEntries    int           `yaml:"max_entries"`
}

// Policy returns the cache policy with defaults applied.
func (c CacheConfig) Policy() cache.Policy {
	return cache.Policy{EntryLifetime: c.EntryLifetime, MaxEntries: c.MaxEntries}.WithDefaults()
}

// CacheOptions returns a cache.Config for this section. clock and recorder
// may be nil.
func (c CacheConfig) CacheOptions(clock cache.Clock, recorder cache.Recorder) cache.Config {
	return cache.Config{
		Name:     c.Name,
		Policy:   c.Policy(),
		Clock:    clock,
		Recorder: recorder,
	}
}

// HealthConfig configures health checks.
type HealthConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	MinHitRatio    float64       `yaml:"min_hit_ratio"`
}

// Aggregator returns a health aggregator using this section's limits.
func (h HealthConfig) Aggregator() *health.Aggregator {
	return health.NewAggregator(health.AggregatorConfig{
		Timeout:        h.Timeout,
		MaxConcurrency: h.MaxConcurrency,
	})
}

// CacheChecker returns a checker for src carrying MinHitRatio.
func (h HealthConfig) CacheChecker(src health.StatsSource) *health.CacheChecker {
	return health.NewCacheChecker(src, health.CacheCheckerConfig{MinHitRatio: h.MinHitRatio})
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Cache.Name == "" {
		c.Cache.Name = "default"
	}
	if c.Cache.EntryLifetime == 0 {
		c.Cache.EntryLifetime = cache.DefaultEntryLifetime
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = cache.DefaultMaxEntries
	}

	if c.Observe.ServiceName == "" {
		c.Observe.ServiceName = "objcache"
	}
	if c.Observe.Tracing.Exporter == "" {
		c.Observe.Tracing.Exporter = "none"
	}
	if c.Observe.Tracing.Enabled && c.Observe.Tracing.SamplePct == 0 {
		c.Observe.Tracing.SamplePct = 1.0
	}
	if c.Observe.Metrics.Exporter == "" {
		c.Observe.Metrics.Exporter = "none"
	}
	if c.Observe.Logging.Level == "" {
		c.Observe.Logging.Level = "info"
	}

	if c.Health.Timeout == 0 {
		c.Health.Timeout = 5 * time.Second
	}
	if c.Auth != nil {
		c.Auth.applyDefaults()
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	policy := cache.Policy{EntryLifetime: c.Cache.EntryLifetime, MaxEntries: c.Cache.MaxEntries}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: cache: %w", ErrInvalidConfig, err)
	}
	if err := c.Observe.Validate(); err != nil {
		return fmt.Errorf("%w: observe: %w", ErrInvalidConfig, err)
	}
	if err := c.Resilience.validate(); err != nil {
		return fmt.Errorf("%w: resilience: %w", ErrInvalidConfig, err)
	}
	if c.Health.MinHitRatio < 0 || c.Health.MinHitRatio > 1 {
		return fmt.Errorf("%w: health: min_hit_ratio %v outside [0, 1]", ErrInvalidConfig, c.Health.MinHitRatio)
	}
	if c.Auth != nil {
		if err := c.Auth.validate(); err != nil {
			return fmt.Errorf("%w: auth: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
