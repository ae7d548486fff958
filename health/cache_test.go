package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/resilience"
)

type fakeStats cache.Stats

func (f fakeStats) Stats() cache.Stats { return cache.Stats(f) }

func TestCacheChecker_DefaultName(t *testing.T) {
	c := cache.New[string, int](cache.Config{Name: "pages"})
	if got := NewCacheChecker(c, CacheCheckerConfig{}).Name(); got != "cache:pages" {
		t.Errorf("Name() = %q, want cache:pages", got)
	}

	anon := cache.New[string, int](cache.Config{})
	if got := NewCacheChecker(anon, CacheCheckerConfig{}).Name(); got != "cache:default" {
		t.Errorf("Name() = %q, want cache:default", got)
	}

	custom := NewCacheChecker(c, CacheCheckerConfig{Name: "primary"})
	if custom.Name() != "primary" {
		t.Errorf("Name() = %q, want primary", custom.Name())
	}
}

func TestCacheChecker_FullCacheIsHealthy(t *testing.T) {
	c := cache.New[string, int](cache.Config{
		Name:   "pages",
		Policy: cache.Policy{EntryLifetime: time.Hour, MaxEntries: 2},
	})
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)

	r := NewCacheChecker(c, CacheCheckerConfig{}).Check(context.Background())
	if r.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want healthy", r.Status, r.Message)
	}
	if r.Message != "2/2 entries" {
		t.Errorf("Message = %q, want 2/2 entries", r.Message)
	}
	if r.Details["evictions"] != uint64(1) {
		t.Errorf("Details[evictions] = %v, want 1", r.Details["evictions"])
	}
}

func TestCacheChecker_ResidentMismatch(t *testing.T) {
	src := fakeStats{Name: "broken", Entries: 3, Resident: 4, MaxEntries: 10}

	r := NewCacheChecker(src, CacheCheckerConfig{}).Check(context.Background())
	if r.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", r.Status)
	}
	if !errors.Is(r.Error, ErrResidentMismatch) {
		t.Errorf("Error = %v, want ErrResidentMismatch", r.Error)
	}
}

func TestCacheChecker_HitRatio(t *testing.T) {
	tests := []struct {
		name  string
		stats fakeStats
		want  Status
	}{
		{"below threshold", fakeStats{Hits: 10, Misses: 90}, StatusDegraded},
		{"above threshold", fakeStats{Hits: 80, Misses: 20}, StatusHealthy},
		{"too few lookups", fakeStats{Hits: 0, Misses: 50}, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewCacheChecker(tt.stats, CacheCheckerConfig{Name: "c", MinHitRatio: 0.5})
			if r := checker.Check(context.Background()); r.Status != tt.want {
				t.Errorf("Status = %v (%s), want %v", r.Status, r.Message, tt.want)
			}
		})
	}
}

func TestCacheChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewCacheChecker(fakeStats{}, CacheCheckerConfig{Name: "c"}).Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Errorf("Check() = %+v, want unhealthy with context.Canceled", r)
	}
}

func TestBreakerChecker(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  1,
		ResetTimeout: 20 * time.Millisecond,
	})
	checker := NewBreakerChecker("origin", cb)
	ctx := context.Background()

	if checker.Name() != "origin" {
		t.Errorf("Name() = %q, want origin", checker.Name())
	}
	if r := checker.Check(ctx); r.Status != StatusHealthy {
		t.Fatalf("closed: Status = %v, want healthy", r.Status)
	}

	_ = cb.Execute(ctx, func(context.Context) error { return errors.New("origin down") })
	r := checker.Check(ctx)
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCircuitOpen) {
		t.Fatalf("open: Check() = %+v, want unhealthy ErrCircuitOpen", r)
	}
	if r.Details["state"] != "open" {
		t.Errorf("Details[state] = %v, want open", r.Details["state"])
	}

	time.Sleep(40 * time.Millisecond)
	if r := checker.Check(ctx); r.Status != StatusDegraded {
		t.Errorf("half-open: Status = %v, want degraded", r.Status)
	}
}
