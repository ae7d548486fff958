package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jonwraymond/objcache/cache"
)

// CachingConfig configures CachingAuthenticator.
type CachingConfig struct {
	// Name labels the identity cache. Default: "auth"
	Name string

	// Policy bounds how long and how many identities are kept. A zero
	// EntryLifetime means 5 minutes.
	Policy cache.Policy

	// HeaderName carries the credential. Default: "Authorization"
	HeaderName string

	Clock    cache.Clock
	Recorder cache.Recorder
}

// CachingAuthenticator memoises another authenticator's successful results.
//
// Entries are keyed by a SHA-256 digest of the credential header, so raw
// tokens are never retained. An identity whose own expiry has passed is
// removed and the credential is validated again, even if the cache entry
// itself is still live. Rejections are never cached.
type CachingAuthenticator struct {
	next   Authenticator
	header string
	clock  cache.Clock
	cache  *cache.Cache[string, *Identity]
}

// NewCachingAuthenticator wraps next.
func NewCachingAuthenticator(next Authenticator, config CachingConfig) *CachingAuthenticator {
	if config.Name == "" {
		config.Name = "auth"
	}
	if config.Policy.EntryLifetime == 0 {
		config.Policy.EntryLifetime = 5 * time.Minute
	}
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	if config.Clock == nil {
		config.Clock = cache.SystemClock
	}

	return &CachingAuthenticator{
		next:   next,
		header: config.HeaderName,
		clock:  config.Clock,
		cache: cache.New[string, *Identity](cache.Config{
			Name:     config.Name,
			Policy:   config.Policy,
			Clock:    config.Clock,
			Recorder: config.Recorder,
		}),
	}
}

// Name returns the wrapped authenticator's name.
func (c *CachingAuthenticator) Name() string {
	return c.next.Name()
}

// Supports delegates to the wrapped authenticator.
func (c *CachingAuthenticator) Supports(ctx context.Context, req *AuthRequest) bool {
	return c.next.Supports(ctx, req)
}

// Authenticate returns a cached identity for the credential when one is live,
// and otherwise delegates and caches a success.
func (c *CachingAuthenticator) Authenticate(ctx context.Context, req *AuthRequest) (*AuthResult, error) {
	cred := req.GetHeader(c.header)
	if cred == "" {
		return c.next.Authenticate(ctx, req)
	}

	key := credentialKey(cred)
	if id, ok := c.cache.Value(key); ok {
		if !id.ExpiredAt(c.clock.Now()) {
			res := AuthSuccess(id)
			res.Cached = true
			return res, nil
		}
		c.cache.Remove(key)
	}

	res, err := c.next.Authenticate(ctx, req)
	if err != nil || res == nil || !res.Authenticated || res.Identity == nil {
		return res, err
	}
	if !res.Identity.ExpiredAt(c.clock.Now()) {
		c.cache.Insert(key, res.Identity)
	}
	return res, nil
}

// Invalidate drops any cached identity for the credential header value.
func (c *CachingAuthenticator) Invalidate(credential string) {
	c.cache.Remove(credentialKey(credential))
}

// Cache exposes the identity cache for health checks and metrics.
func (c *CachingAuthenticator) Cache() *cache.Cache[string, *Identity] {
	return c.cache
}

// Stats returns the identity cache statistics.
func (c *CachingAuthenticator) Stats() cache.Stats {
	return c.cache.Stats()
}

func credentialKey(cred string) string {
	sum := sha256.Sum256([]byte(cred))
	return hex.EncodeToString(sum[:])
}

var _ Authenticator = (*CachingAuthenticator)(nil)
