package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// MaxKeyLength is the longest key ValidateKey accepts.
const MaxKeyLength = 512

var (
	// ErrInvalidKey indicates an empty, blank or malformed key.
	ErrInvalidKey = errors.New("fetch: invalid key")

	// ErrKeyTooLong indicates a key longer than MaxKeyLength.
	ErrKeyTooLong = errors.New("fetch: key too long")
)

// Keyer maps a caller's raw identifier to a cache key.
//
// Contract:
// - Determinism: equivalent raw inputs produce the same key.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(raw string) (string, error)
}

// KeyerFunc adapts a function to a Keyer.
type KeyerFunc func(raw string) (string, error)

// Key calls f.
func (f KeyerFunc) Key(raw string) (string, error) { return f(raw) }

// ValidateKey rejects keys the loader will not store.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "\r\n") {
		return fmt.Errorf("%w: contains line break", ErrInvalidKey)
	}
	if len(key) > MaxKeyLength {
		return fmt.Errorf("%w: %d bytes, max %d", ErrKeyTooLong, len(key), MaxKeyLength)
	}
	return nil
}

// ExactKeyer uses the raw string unchanged after validation.
type ExactKeyer struct{}

// Key returns raw if it is a valid key.
func (ExactKeyer) Key(raw string) (string, error) {
	if err := ValidateKey(raw); err != nil {
		return "", err
	}
	return raw, nil
}

// URLKeyer canonicalises absolute URLs so that equivalent spellings share an
// entry: scheme and host are lower-cased, default ports and fragments are
// dropped, an empty path becomes "/", and query parameters are sorted.
type URLKeyer struct {
	// Digest replaces canonical forms longer than MaxKeyLength with
	// "url:" plus a SHA-256 hex digest instead of failing.
	Digest bool
}

// Key returns the canonical form of raw.
func (k URLKeyer) Key(raw string) (string, error) {
	canonical, err := CanonicalURL(raw)
	if err != nil {
		return "", err
	}
	if k.Digest && len(canonical) > MaxKeyLength {
		sum := sha256.Sum256([]byte(canonical))
		return "url:" + hex.EncodeToString(sum[:]), nil
	}
	if err := ValidateKey(canonical); err != nil {
		return "", err
	}
	return canonical, nil
}

// CanonicalURL returns the canonical form URLKeyer uses.
func CanonicalURL(raw string) (string, error) {
	if err := ValidateKey(raw); err != nil && !errors.Is(err, ErrKeyTooLong) {
		return "", err
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidKey, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && !isDefaultPort(u.Scheme, port) {
		host = net.JoinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	if u.Path == "" {
		u.Path = "/"
	}
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}
	return u.String(), nil
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "http" && port == "80") || (scheme == "https" && port == "443")
}

var (
	_ Keyer = ExactKeyer{}
	_ Keyer = URLKeyer{}
	_ Keyer = KeyerFunc(nil)
)
