package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/objcache/cache"
)

// Provider resolves secrets by reference string.
//
// Implementations must be safe for concurrent use and must not log secret
// values.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
	Close() error
}

// EnvProvider resolves a reference as an environment variable name.
type EnvProvider struct{}

// Name returns "env".
func (EnvProvider) Name() string { return "env" }

// Resolve returns the value of the variable ref. An unset variable is
// ErrNotFound; a set but empty one resolves to "".
func (EnvProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	v, ok := os.LookupEnv(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

// Close is a no-op.
func (EnvProvider) Close() error { return nil }

// FileProvider resolves a reference as a file under Dir, as mounted secrets
// are laid out by container orchestrators. One trailing newline is trimmed.
type FileProvider struct {
	Dir string
}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve reads Dir/ref. ref must stay within Dir.
func (p FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: %q escapes secret directory", ErrInvalidRef, ref)
	}

	data, err := os.ReadFile(filepath.Join(p.Dir, ref))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}

	v := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(v, "\r"), nil
}

// Close is a no-op.
func (FileProvider) Close() error { return nil }

// CachingProvider memoises another provider's successful resolutions.
// Failures are never cached.
type CachingProvider struct {
	next  Provider
	cache *cache.Cache[string, string]
}

// NewCachingProvider wraps next with a cache governed by policy. A zero
// EntryLifetime means DefaultCacheLifetime. A nil clock means the system
// clock.
func NewCachingProvider(next Provider, policy cache.Policy, clock cache.Clock) *CachingProvider {
	if policy.EntryLifetime == 0 {
		policy.EntryLifetime = DefaultCacheLifetime
	}
	return &CachingProvider{
		next: next,
		cache: cache.New[string, string](cache.Config{
			Name:   "secret:" + next.Name(),
			Policy: policy,
			Clock:  clock,
		}),
	}
}

// DefaultCacheLifetime bounds how long a cached secret is reused when the
// caller does not choose a lifetime.
const DefaultCacheLifetime = 5 * time.Minute

// Name returns the wrapped provider's name.
func (p *CachingProvider) Name() string { return p.next.Name() }

// Resolve returns the cached value for ref, consulting the wrapped provider
// on a miss.
func (p *CachingProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if v, ok := p.cache.Value(ref); ok {
		return v, nil
	}
	v, err := p.next.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	p.cache.Insert(ref, v)
	return v, nil
}

// Forget drops any cached value for ref.
func (p *CachingProvider) Forget(ref string) {
	p.cache.Remove(ref)
}

// Close clears the cache and closes the wrapped provider.
func (p *CachingProvider) Close() error {
	p.cache.Clear()
	return p.next.Close()
}

var (
	_ Provider = EnvProvider{}
	_ Provider = FileProvider{}
	_ Provider = (*CachingProvider)(nil)
)
