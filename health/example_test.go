package health_test

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/health"
)

func ExampleCacheChecker() {
	c := cache.New[string, string](cache.Config{
		Name:   "pages",
		Policy: cache.Policy{EntryLifetime: time.Hour, MaxEntries: 10},
	})
	c.Insert("/", "<html>")

	r := health.NewCacheChecker(c, health.CacheCheckerConfig{}).Check(context.Background())
	fmt.Println(r.Status, r.Message)
	// Output: healthy 1/10 entries
}

func ExampleAggregator() {
	agg := health.NewAggregator(health.AggregatorConfig{Timeout: time.Second})
	agg.Register("pages", health.NewCheckerFunc("pages", func(context.Context) health.Result {
		return health.Healthy("ok")
	}))
	agg.Register("origin", health.NewCheckerFunc("origin", func(context.Context) health.Result {
		return health.Degraded("probing origin")
	}))

	results := agg.CheckAll(context.Background())
	fmt.Println(agg.OverallStatus(results))
	// Output: degraded
}
