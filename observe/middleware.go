package observe

import (
	"context"
	"time"
)

// FetchFunc produces the value for a cache miss.
type FetchFunc func(ctx context.Context, meta CacheMeta) (any, error)

// Middleware wraps fetches with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap returns a FetchFunc safe for concurrent use.
//   - Context: the span is propagated to the wrapped function through ctx.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
//   - Ownership: fetched values are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NewTracer(nil)
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Wrap wraps fn with a span, fetch metrics and a log entry.
func (m *Middleware) Wrap(fn FetchFunc) FetchFunc {
	return func(ctx context.Context, meta CacheMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := m.now()

		value, err := fn(ctx, meta)

		duration := m.now().Sub(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordFetch(ctx, meta, duration, err)

		log := m.logger.WithCache(meta)
		fields := []Field{{Key: "duration_ms", Value: float64(duration.Microseconds()) / 1000}}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			log.Warn(ctx, "cache fetch failed", fields...)
		} else {
			log.Debug(ctx, "cache fetch completed", fields...)
		}

		return value, err
	}
}

// MiddlewareFromObserver builds a Middleware whose metrics are labelled with
// meta. The returned CacheMetrics can also be passed as the cache's Recorder.
func MiddlewareFromObserver(obs Observer, meta CacheMeta) (*Middleware, *CacheMetrics, error) {
	if obs == nil {
		return nil, nil, ErrNilObserver
	}
	metrics, err := NewCacheMetrics(obs.Meter(), meta)
	if err != nil {
		return nil, nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), metrics, nil
}
