package cache

import (
	"fmt"
	"time"
)

// Default policy values.
const (
	DefaultEntryLifetime = 12 * time.Hour
	DefaultMaxEntries    = 50
)

// Policy configures lifetime and capacity.
type Policy struct {
	// EntryLifetime is the time-to-live applied to every inserted entry.
	// Zero means DefaultEntryLifetime.
	EntryLifetime time.Duration

	// MaxEntries is the hard cap on resident entries.
	// Zero means DefaultMaxEntries.
	MaxEntries int
}

// DefaultPolicy returns the default caching policy.
// EntryLifetime: 12 hours, MaxEntries: 50
func DefaultPolicy() Policy {
	return Policy{
		EntryLifetime: DefaultEntryLifetime,
		MaxEntries:    DefaultMaxEntries,
	}
}

// Validate reports whether the policy can be applied.
// Zero values are valid and mean "use the default".
func (p Policy) Validate() error {
	if p.EntryLifetime < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidLifetime, p.EntryLifetime)
	}
	if p.MaxEntries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxEntries, p.MaxEntries)
	}
	return nil
}

// WithDefaults returns the policy with zero or negative fields replaced by
// their defaults.
func (p Policy) WithDefaults() Policy {
	if p.EntryLifetime <= 0 {
		p.EntryLifetime = DefaultEntryLifetime
	}
	if p.MaxEntries <= 0 {
		p.MaxEntries = DefaultMaxEntries
	}
	return p
}

// ExpiresAt returns the expiration for an entry inserted at now.
func (p Policy) ExpiresAt(now time.Time) time.Time {
	return now.Add(p.WithDefaults().EntryLifetime)
}
