package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonwraymond/objcache/cache"
)

func BenchmarkCacheChecker_Check(b *testing.B) {
	c := cache.New[string, int](cache.Config{Name: "bench"})
	for i := range 50 {
		c.Insert(fmt.Sprint(i), i)
	}
	checker := NewCacheChecker(c, CacheCheckerConfig{MinHitRatio: 0.5})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = checker.Check(ctx)
	}
}

func BenchmarkAggregator_CheckAll(b *testing.B) {
	agg := NewAggregator()
	for i := range 8 {
		name := fmt.Sprintf("c%d", i)
		agg.Register(name, static(name, Healthy("")))
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = agg.CheckAll(ctx)
	}
}
