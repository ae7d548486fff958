package secret

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jonwraymond/objcache/cache"
)

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ProviderFactory)}
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return errors.New("secret: invalid provider registration")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("secret: provider %q already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Create instantiates the provider registered under name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)

	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}

	p, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("secret: create provider %q: %w", name, err)
	}
	if cfg != nil {
		if d, ok := cfg["cache_lifetime"].(string); ok && d != "" {
			lifetime, err := time.ParseDuration(d)
			if err != nil {
				return nil, fmt.Errorf("secret: provider %q cache_lifetime: %w", name, err)
			}
			p = NewCachingProvider(p, cache.Policy{EntryLifetime: lifetime}, nil)
		}
	}
	return p, nil
}

// NewResolver creates every provider named in configs and returns a resolver
// over them. A provider config may carry "cache_lifetime" (a duration string)
// to wrap the provider in a CachingProvider.
func (r *Registry) NewResolver(strict bool, configs map[string]map[string]any) (*Resolver, error) {
	providers := make([]Provider, 0, len(configs))
	for _, name := range slices.Sorted(maps.Keys(configs)) {
		p, err := r.Create(name, configs[name])
		if err != nil {
			for _, created := range providers {
				_ = created.Close()
			}
			return nil, err
		}
		providers = append(providers, p)
	}
	return NewResolver(strict, providers...), nil
}

// List returns registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// DefaultRegistry holds the built-in "env" and "file" providers. The file
// provider reads its directory from the "dir" key.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("env", func(map[string]any) (Provider, error) {
		return EnvProvider{}, nil
	})
	_ = r.Register("file", func(cfg map[string]any) (Provider, error) {
		dir, _ := cfg["dir"].(string)
		if dir == "" {
			return nil, errors.New(`"dir" is required`)
		}
		return FileProvider{Dir: dir}, nil
	})
	return r
}
