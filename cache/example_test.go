package cache_test

import (
	"fmt"
	"sort"
	"time"

	"github.com/jonwraymond/objcache/cache"
)

func ExampleNew() {
	c := cache.New[string, string](cache.Config{Policy: cache.DefaultPolicy()})

	c.Insert("https://example.com/a.png", "image-a")

	value, ok := c.Value("https://example.com/a.png")
	fmt.Println(value, ok)
	// Output:
	// image-a true
}

func ExampleCache_Value_expiration() {
	clock := cache.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := cache.New[string, string](cache.Config{
		Policy: cache.Policy{EntryLifetime: 5 * time.Second},
		Clock:  clock,
	})

	c.Insert("x", "foo")

	clock.Advance(4 * time.Second)
	v, ok := c.Value("x")
	fmt.Println("t=4s:", v, ok)

	clock.Advance(time.Second)
	_, ok = c.Value("x")
	fmt.Println("t=5s:", ok, "resident:", c.Contains("x"))
	// Output:
	// t=4s: foo true
	// t=5s: false resident: false
}

func ExampleCache_Observe() {
	c := cache.New[string, int](cache.Config{
		Policy: cache.Policy{EntryLifetime: time.Hour, MaxEntries: 2},
	})

	index := map[string]bool{}
	c.Observe(cache.ObserverFunc[string](func(key string, reason cache.EvictionReason) {
		delete(index, key)
		fmt.Printf("evicted %s (%s)\n", key, reason)
	}))

	for i, k := range []string{"a", "b", "c"} {
		c.Insert(k, i)
		index[k] = true
	}
	c.Remove("b")

	keys := make([]string, 0, len(index))
	for k := range index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Println("index:", keys)
	// Output:
	// evicted a (capacity)
	// evicted b (removed)
	// index: [c]
}

func ExampleCache_Set() {
	c := cache.New[string, int](cache.Config{})

	c.Set("k", 1, true)
	fmt.Println(c.Value("k"))

	c.Set("k", 0, false)
	fmt.Println(c.Value("k"))
	// Output:
	// 1 true
	// 0 false
}

func ExampleDefaultPolicy() {
	p := cache.DefaultPolicy()
	fmt.Println("EntryLifetime:", p.EntryLifetime)
	fmt.Println("MaxEntries:", p.MaxEntries)
	// Output:
	// EntryLifetime: 12h0m0s
	// MaxEntries: 50
}
