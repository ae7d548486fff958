// Package cache provides a bounded, time-aware object cache.
//
// A Cache holds at most Policy.MaxEntries entries, stamps every insert with
// an absolute expiration derived from Policy.EntryLifetime and an injected
// Clock, and expires entries lazily when a read touches them. Capacity
// pressure is resolved by the underlying bounded store (least recently used
// first).
//
// Alongside the store the cache keeps a resident key set. Every removal path
// (capacity eviction, explicit removal, lazy expiration, Clear) notifies the
// key tracker synchronously, so the set never disagrees with the store once
// the removing call has returned. Additional Observers can be attached to
// reconcile external indexes with the same notifications.
//
// The cache has no failure modes: lookups report absence on miss or
// expiry, and Insert and Remove always succeed.
package cache
