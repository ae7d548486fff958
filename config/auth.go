package config

import (
	"errors"
	"time"

	"github.com/jonwraymond/objcache/auth"
	"github.com/jonwraymond/objcache/cache"
)

// AuthConfig configures JWT authentication of cache requests. SigningKey is
// usually a secretref so the key never sits in the file.
type AuthConfig struct {
	Issuer      string `yaml:"issuer"`
	Audience    string `yaml:"audience"`
	SigningKey  string `yaml:"signing_key"`
	TenantClaim string `yaml:"tenant_claim"`
	RolesClaim  string `yaml:"roles_claim"`

	Leeway time.Duration `yaml:"leeway"`

	// CacheLifetime bounds how long a validated identity is reused. Zero
	// disables identity caching.
	CacheLifetime time.Duration `yaml:"cache_lifetime"`
	MaxCached     int           `yaml:"max_cached"`

	AllowAnonymous bool `yaml:"allow_anonymous"`
}

func (a *AuthConfig) applyDefaults() {
	if a.CacheLifetime > 0 && a.MaxCached == 0 {
		a.MaxCached = 1024
	}
}

func (a *AuthConfig) validate() error {
	if a.SigningKey == "" {
		return errors.New("signing_key is required")
	}
	if a.CacheLifetime < 0 || a.MaxCached < 0 {
		return errors.New("cache_lifetime and max_cached must not be negative")
	}
	return nil
}

// Authenticator builds the JWT authenticator, wrapped in a
// CachingAuthenticator when CacheLifetime is set. recorder may be nil.
func (a *AuthConfig) Authenticator(recorder cache.Recorder) (auth.Authenticator, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}

	jwtAuth := auth.NewJWTAuthenticator(auth.JWTConfig{
		Issuer:      a.Issuer,
		Audience:    a.Audience,
		TenantClaim: a.TenantClaim,
		RolesClaim:  a.RolesClaim,
		Leeway:      a.Leeway,
	}, auth.NewStaticKeyProvider([]byte(a.SigningKey)))

	if a.CacheLifetime <= 0 {
		return jwtAuth, nil
	}
	return auth.NewCachingAuthenticator(jwtAuth, auth.CachingConfig{
		Name:     "auth",
		Policy:   cache.Policy{EntryLifetime: a.CacheLifetime, MaxEntries: a.MaxCached},
		Recorder: recorder,
	}), nil
}
