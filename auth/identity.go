package auth

import (
	"slices"
	"time"
)

// AuthMethod indicates how authentication was performed.
type AuthMethod string

const (
	AuthMethodNone      AuthMethod = "none"
	AuthMethodJWT       AuthMethod = "jwt"
	AuthMethodAnonymous AuthMethod = "anonymous"
)

// Identity is an authenticated principal. Identities held by a
// CachingAuthenticator are shared between requests and must not be mutated.
type Identity struct {
	// Principal is the unique identifier (e.g., user ID, email).
	Principal string

	// TenantID scopes the identity in multi-tenant deployments.
	TenantID string

	Roles  []string
	Method AuthMethod

	// Claims holds the raw token claims.
	Claims map[string]any

	// ExpiresAt is when the credential stops being valid. Zero means never.
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// HasRole reports whether the identity holds role.
func (id *Identity) HasRole(role string) bool {
	return slices.Contains(id.Roles, role)
}

// ExpiredAt reports whether the identity is expired at now. The boundary is
// inclusive, matching cache entry expiry.
func (id *Identity) ExpiredAt(now time.Time) bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(id.ExpiresAt)
}

// IsExpired reports whether the identity is expired now.
func (id *Identity) IsExpired() bool {
	return id.ExpiredAt(time.Now())
}

// IsAnonymous reports whether the identity carries no principal.
func (id *Identity) IsAnonymous() bool {
	return id.Method == AuthMethodAnonymous || id.Principal == ""
}

// AnonymousIdentity creates the identity used for unauthenticated requests
// when anonymous access is allowed.
func AnonymousIdentity() *Identity {
	return &Identity{
		Principal: "anonymous",
		Method:    AuthMethodAnonymous,
		Claims:    make(map[string]any),
	}
}
