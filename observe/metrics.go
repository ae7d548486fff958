package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/objcache/cache"
)

// Metrics records fetch outcomes.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordFetch records one fetch with its duration and error status.
	RecordFetch(ctx context.Context, meta CacheMeta, duration time.Duration, err error)
}

// StatsSource exposes a cache snapshot. *cache.Cache satisfies it.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheMetrics records lookups, inserts, evictions and fetches for a single
// cache. It implements cache.Recorder and Metrics.
type CacheMetrics struct {
	meter metric.Meter
	meta  CacheMeta
	attrs metric.MeasurementOption

	lookups       metric.Int64Counter
	inserts       metric.Int64Counter
	evictions     metric.Int64Counter
	fetchTotal    metric.Int64Counter
	fetchErrors   metric.Int64Counter
	fetchDuration metric.Float64Histogram
	entries       metric.Int64ObservableGauge
	resident      metric.Int64ObservableGauge
}

// NewCacheMetrics creates the instruments for the cache described by meta.
func NewCacheMetrics(meter metric.Meter, meta CacheMeta) (*CacheMetrics, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	m := &CacheMetrics{
		meter: meter,
		meta:  meta,
		attrs: metric.WithAttributes(meta.attributes()...),
	}

	var err error
	if m.lookups, err = meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Cache lookups by result"),
		metric.WithUnit("{lookup}"),
	); err != nil {
		return nil, err
	}
	if m.inserts, err = meter.Int64Counter(
		"cache.inserts",
		metric.WithDescription("Cache inserts, including overwrites"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Entries leaving the cache by reason"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.fetchTotal, err = meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Fetches performed on cache misses"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.fetchErrors, err = meter.Int64Counter(
		"cache.fetch.errors",
		metric.WithDescription("Failed fetches"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.fetchDuration, err = meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.entries, err = meter.Int64ObservableGauge(
		"cache.entries",
		metric.WithDescription("Entries currently in the store"),
		metric.WithUnit("{entry}"),
	); err != nil {
		return nil, err
	}
	if m.resident, err = meter.Int64ObservableGauge(
		"cache.resident_keys",
		metric.WithDescription("Keys currently in the resident set"),
		metric.WithUnit("{key}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// Meta returns the cache identity the metrics are labelled with.
func (m *CacheMetrics) Meta() CacheMeta {
	return m.meta
}

// ObserveStats registers gauges that read src on every collection.
// Call Unregister on the result when the cache is discarded.
func (m *CacheMetrics) ObserveStats(src StatsSource) (metric.Registration, error) {
	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := src.Stats()
		o.ObserveInt64(m.entries, int64(s.Entries), m.attrs)
		o.ObserveInt64(m.resident, int64(s.Resident), m.attrs)
		return nil
	}, m.entries, m.resident)
}

// RecordHit implements cache.Recorder.
func (m *CacheMetrics) RecordHit() {
	m.lookups.Add(context.Background(), 1, m.attrs, metric.WithAttributes(attribute.String("result", "hit")))
}

// RecordMiss implements cache.Recorder.
func (m *CacheMetrics) RecordMiss() {
	m.lookups.Add(context.Background(), 1, m.attrs, metric.WithAttributes(attribute.String("result", "miss")))
}

// RecordInsert implements cache.Recorder.
func (m *CacheMetrics) RecordInsert() {
	m.inserts.Add(context.Background(), 1, m.attrs)
}

// RecordEviction implements cache.Recorder.
func (m *CacheMetrics) RecordEviction(reason cache.EvictionReason) {
	m.evictions.Add(context.Background(), 1, m.attrs, metric.WithAttributes(attribute.String("reason", reason.String())))
}

// RecordFetch implements Metrics.
func (m *CacheMetrics) RecordFetch(ctx context.Context, meta CacheMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

var (
	_ cache.Recorder = (*CacheMetrics)(nil)
	_ Metrics        = (*CacheMetrics)(nil)
)

type noopMetrics struct{}

func (noopMetrics) RecordFetch(context.Context, CacheMeta, time.Duration, error) {}
