package observe_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/observe"
)

func ExampleNewObserver() {
	ctx := context.Background()
	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "objcache-example",
		Version:     "1.0.0",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1},
		Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
	})
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer func() { _ = obs.Shutdown(ctx) }()

	fmt.Println("Observer created")
	// Output:
	// Observer created
}

func ExampleConfig_Validate() {
	cfg := observe.Config{ServiceName: "svc", Logging: observe.LoggingConfig{Enabled: true, Level: "loud"}}
	err := cfg.Validate()
	fmt.Println(errors.Is(err, observe.ErrInvalidLogLevel))
	// Output:
	// true
}

func ExampleCacheMeta_SpanName() {
	fmt.Println(observe.CacheMeta{Namespace: "media", Name: "thumbs"}.SpanName())
	fmt.Println(observe.CacheMeta{Name: "users"}.SpanName())
	// Output:
	// cache.fetch.media.thumbs
	// cache.fetch.users
}

func ExampleNewCacheMetrics() {
	ctx := context.Background()
	obs, _ := observe.NewObserver(ctx, observe.Config{ServiceName: "svc"})
	defer func() { _ = obs.Shutdown(ctx) }()

	meta := observe.CacheMeta{Name: "images"}
	metrics, err := observe.NewCacheMetrics(obs.Meter(), meta)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	c := cache.New[string, []byte](cache.Config{Name: meta.Name, Recorder: metrics})
	reg, _ := metrics.ObserveStats(c)
	defer func() { _ = reg.Unregister() }()

	c.Insert("logo.png", []byte{0x89, 'P', 'N', 'G'})
	_, ok := c.Value("logo.png")
	fmt.Println("hit:", ok)
	// Output:
	// hit: true
}

func ExampleLogger_WithCache() {
	var buf bytes.Buffer
	log := observe.NewLoggerWithWriter("info", &buf).WithCache(observe.CacheMeta{Name: "images"})
	log.Info(context.Background(), "evicted", observe.Field{Key: "value", Value: "secret bytes"})

	out := buf.String()
	fmt.Println(strings.Contains(out, `"cache.name":"images"`))
	fmt.Println(strings.Contains(out, `"value":"[REDACTED]"`))
	// Output:
	// true
	// true
}
