package cache

// counters are guarded by the owning cache's lock.
type counters struct {
	hits      uint64
	misses    uint64
	inserts   uint64
	evictions map[EvictionReason]uint64
}

func newCounters() counters {
	return counters{evictions: make(map[EvictionReason]uint64, 4)}
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Name       string
	Hits       uint64
	Misses     uint64
	Inserts    uint64
	Evictions  map[EvictionReason]uint64
	Entries    int // entries in the store
	Resident   int // keys in the resident set
	MaxEntries int
}

// HitRatio returns Hits / (Hits + Misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// TotalEvictions sums evictions across all reasons.
func (s Stats) TotalEvictions() uint64 {
	var n uint64
	for _, v := range s.Evictions {
		n += v
	}
	return n
}

// Consistent reports whether the resident set and the store agree on size.
func (s Stats) Consistent() bool {
	return s.Entries == s.Resident
}

// Stats returns a snapshot of cache activity.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	evictions := make(map[EvictionReason]uint64, len(c.stats.evictions))
	for r, n := range c.stats.evictions {
		evictions[r] = n
	}

	return Stats{
		Name:       c.name,
		Hits:       c.stats.hits,
		Misses:     c.stats.misses,
		Inserts:    c.stats.inserts,
		Evictions:  evictions,
		Entries:    c.store.Len(),
		Resident:   c.tracker.len(),
		MaxEntries: c.policy.MaxEntries,
	}
}
