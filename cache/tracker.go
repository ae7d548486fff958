package cache

// EvictionReason says why an entry left the store.
type EvictionReason int

const (
	// EvictionCapacity means the store exceeded MaxEntries.
	EvictionCapacity EvictionReason = iota
	// EvictionRemoved means the caller removed the key.
	EvictionRemoved
	// EvictionExpired means a read found the entry past its expiration.
	EvictionExpired
	// EvictionCleared means the whole cache was cleared.
	EvictionCleared
)

// String returns the string representation of the reason.
func (r EvictionReason) String() string {
	switch r {
	case EvictionCapacity:
		return "capacity"
	case EvictionRemoved:
		return "removed"
	case EvictionExpired:
		return "expired"
	case EvictionCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Observer is notified whenever an entry leaves the store.
//
// Contract:
// - OnEvict runs synchronously while the cache lock is held and completes
//   before the evicting call returns.
// - Implementations must not call back into the cache that notified them.
// - Implementations must not panic; eviction is bookkeeping and cannot fail.
type Observer[K comparable] interface {
	OnEvict(key K, reason EvictionReason)
}

// ObserverFunc adapts an ordinary function to an Observer.
type ObserverFunc[K comparable] func(key K, reason EvictionReason)

// OnEvict calls f.
func (f ObserverFunc[K]) OnEvict(key K, reason EvictionReason) {
	f(key, reason)
}

// keyTracker maintains the resident key set.
// It is guarded by the owning cache's lock.
type keyTracker[K comparable] struct {
	keys map[K]struct{}
}

func newKeyTracker[K comparable](capacity int) *keyTracker[K] {
	return &keyTracker[K]{keys: make(map[K]struct{}, capacity)}
}

func (t *keyTracker[K]) add(key K) {
	t.keys[key] = struct{}{}
}

// OnEvict removes key from the resident set. Removing an absent key is a no-op.
func (t *keyTracker[K]) OnEvict(key K, _ EvictionReason) {
	delete(t.keys, key)
}

func (t *keyTracker[K]) contains(key K) bool {
	_, ok := t.keys[key]
	return ok
}

func (t *keyTracker[K]) len() int {
	return len(t.keys)
}

func (t *keyTracker[K]) snapshot() []K {
	out := make([]K, 0, len(t.keys))
	for k := range t.keys {
		out = append(out, k)
	}
	return out
}

var _ Observer[string] = (*keyTracker[string])(nil)
