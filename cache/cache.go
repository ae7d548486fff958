package cache

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Sentinel errors for cache configuration.
var (
	ErrInvalidLifetime   = errors.New("cache: entry lifetime must not be negative")
	ErrInvalidMaxEntries = errors.New("cache: max entries must not be negative")
)

// Recorder receives lookup and eviction events, typically for metrics.
//
// Contract:
// - Methods are called while the cache lock is held; they must be fast and
//   must not call back into the cache.
type Recorder interface {
	RecordHit()
	RecordMiss()
	RecordInsert()
	RecordEviction(reason EvictionReason)
}

// Config configures a Cache.
type Config struct {
	// Name labels the cache in telemetry and health output.
	Name string

	// Policy sets lifetime and capacity. Zero fields take defaults.
	Policy Policy

	// Clock supplies the current time. Default: SystemClock.
	Clock Clock

	// Recorder receives hit/miss/eviction events. Optional.
	Recorder Recorder
}

// Entry is a stored value with its absolute expiration.
// Entries are replaced wholesale on re-insert, never mutated.
type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	ExpiresAt time.Time
}

// Expired reports whether the entry is expired at now.
// The boundary is inclusive: an entry whose ExpiresAt equals now is expired.
func (e Entry[K, V]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Cache is a capacity- and time-bounded associative store.
//
// Contract:
// - Concurrency: safe for concurrent use. Insert-or-overwrite and
//   check-and-evict on expiration are atomic per call.
// - Evictions notify the key tracker and then every Observer before the
//   evicting call returns.
// - Errors: none. Value reports absence with ok=false.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	name      string
	policy    Policy
	clock     Clock
	recorder  Recorder
	store     *simplelru.LRU[K, Entry[K, V]]
	tracker   *keyTracker[K]
	observers []Observer[K]

	// reason labels the removal in progress; the store's callback reads it.
	reason EvictionReason
	stats  counters
}

// New creates a cache with the given configuration.
//
// Zero or negative policy fields fall back to DefaultEntryLifetime and
// DefaultMaxEntries. Call Policy.Validate first to reject negative values
// instead; config.Parse does.
func New[K comparable, V any](config Config) *Cache[K, V] {
	policy := config.Policy.WithDefaults()
	clock := config.Clock
	if clock == nil {
		clock = SystemClock
	}

	c := &Cache[K, V]{
		name:     config.Name,
		policy:   policy,
		clock:    clock,
		recorder: config.Recorder,
		tracker:  newKeyTracker[K](policy.MaxEntries),
		reason:   EvictionCapacity,
		stats:    newCounters(),
	}

	// MaxEntries is positive after WithDefaults, so NewLRU cannot fail.
	store, err := simplelru.NewLRU[K, Entry[K, V]](policy.MaxEntries, c.onEvict)
	if err != nil {
		panic(err)
	}
	c.store = store
	return c
}

// Observe registers an observer for subsequent evictions.
func (c *Cache[K, V]) Observe(o Observer[K]) {
	if o == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, o)
	c.mu.Unlock()
}

// Insert stores value under key, replacing any prior entry and resetting its
// expiration to now + EntryLifetime. It may evict another entry to respect
// MaxEntries.
func (c *Cache[K, V]) Insert(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry[K, V]{
		Key:       key,
		Value:     value,
		ExpiresAt: c.policy.ExpiresAt(c.clock.Now()),
	}

	c.reason = EvictionCapacity
	c.store.Add(key, entry)
	c.tracker.add(key)

	c.stats.inserts++
	if c.recorder != nil {
		c.recorder.RecordInsert()
	}
}

// Value returns the value stored under key.
//
// An entry whose expiration is at or before now is removed (notifying the
// tracker with EvictionExpired) and reported as a miss.
func (c *Cache[K, V]) Value(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.store.Get(key)
	if !ok {
		c.missLocked()
		return zero, false
	}

	if entry.Expired(c.clock.Now()) {
		c.removeLocked(key, EvictionExpired)
		c.missLocked()
		return zero, false
	}

	c.stats.hits++
	if c.recorder != nil {
		c.recorder.RecordHit()
	}
	return entry.Value, true
}

// Remove deletes any entry for key. Removing an absent key is a no-op and
// does not notify observers.
func (c *Cache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key, EvictionRemoved)
}

// Set is the assignment form of Value: ok=true inserts value, ok=false
// removes key.
func (c *Cache[K, V]) Set(key K, value V, ok bool) {
	if !ok {
		c.Remove(key)
		return
	}
	c.Insert(key, value)
}

// Contains reports whether key is in the resident set.
// It does not consult expiration.
func (c *Cache[K, V]) Contains(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.contains(key)
}

// ResidentKeys returns the resident key set in no particular order.
func (c *Cache[K, V]) ResidentKeys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracker.snapshot()
}

// Peek returns the entry for key without updating recency or checking
// expiration.
func (c *Cache[K, V]) Peek(key K) (Entry[K, V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Peek(key)
}

// Len returns the number of entries in the store, including entries that
// are expired but not yet observed as such.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Len()
}

// Clear evicts every entry with EvictionCleared.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reason = EvictionCleared
	c.store.Purge()
	c.reason = EvictionCapacity
}

// Policy returns the effective policy.
func (c *Cache[K, V]) Policy() Policy {
	return c.policy
}

// Name returns the configured name.
func (c *Cache[K, V]) Name() string {
	return c.name
}

func (c *Cache[K, V]) removeLocked(key K, reason EvictionReason) bool {
	c.reason = reason
	removed := c.store.Remove(key)
	c.reason = EvictionCapacity
	return removed
}

func (c *Cache[K, V]) missLocked() {
	c.stats.misses++
	if c.recorder != nil {
		c.recorder.RecordMiss()
	}
}

// onEvict is the store's eviction callback. It runs inside store calls made
// under c.mu.
func (c *Cache[K, V]) onEvict(key K, _ Entry[K, V]) {
	reason := c.reason
	c.tracker.OnEvict(key, reason)
	for _, o := range c.observers {
		o.OnEvict(key, reason)
	}

	c.stats.evictions[reason]++
	if c.recorder != nil {
		c.recorder.RecordEviction(reason)
	}
}
