package fetch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/objcache/cache"
	"github.com/jonwraymond/objcache/observe"
	"github.com/jonwraymond/objcache/resilience"
)

// ErrNilCache is returned by NewLoader when no cache is supplied.
var ErrNilCache = errors.New("fetch: cache is nil")

// Func produces the value for a key on a cache miss. It performs whatever
// retrieval the caller needs; the loader itself does no I/O.
type Func[V any] func(ctx context.Context) (V, error)

// Option configures a Loader.
type Option func(*options)

type options struct {
	keyer      Keyer
	executor   *resilience.Executor
	middleware *observe.Middleware
	logger     observe.Logger
	meta       observe.CacheMeta
}

// WithKeyer sets how raw identifiers become cache keys. Default: ExactKeyer.
func WithKeyer(k Keyer) Option {
	return func(o *options) {
		if k != nil {
			o.keyer = k
		}
	}
}

// WithExecutor runs every fetch through e.
func WithExecutor(e *resilience.Executor) Option {
	return func(o *options) { o.executor = e }
}

// WithMiddleware wraps every fetch with tracing, metrics and logging.
func WithMiddleware(m *observe.Middleware) Option {
	return func(o *options) { o.middleware = m }
}

// WithLogger sets the logger used for key and insert diagnostics.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMeta overrides the telemetry identity. Default: the cache's name.
func WithMeta(meta observe.CacheMeta) Option {
	return func(o *options) { o.meta = meta }
}

// Loader reads through a cache: hits return the stored value, misses call
// the caller's Func once per key and store the result.
//
// Contract:
//   - Concurrency: safe for concurrent use. Concurrent misses on one key share
//     a single fetch.
//   - Errors: fetch errors are returned to every waiting caller and are never
//     stored. Nothing is inserted for a key until its fetch succeeds.
//   - Context: a caller whose ctx ends stops waiting; the shared fetch keeps
//     running for the remaining callers, bounded by the executor's timeout.
//   - Invalidation: Invalidate only removes what is stored. A fetch already
//     in flight for the key still inserts its result when it completes.
type Loader[V any] struct {
	cache  *cache.Cache[string, V]
	keyer  Keyer
	exec   *resilience.Executor
	mw     *observe.Middleware
	logger observe.Logger
	meta   observe.CacheMeta
	group  singleflight.Group
}

// NewLoader creates a loader over c.
func NewLoader[V any](c *cache.Cache[string, V], opts ...Option) (*Loader[V], error) {
	if c == nil {
		return nil, ErrNilCache
	}

	o := options{
		keyer:  ExactKeyer{},
		logger: observe.NopLogger(),
		meta:   observe.CacheMeta{Name: c.Name()},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.meta.Name == "" {
		o.meta.Name = "default"
	}

	return &Loader[V]{
		cache:  c,
		keyer:  o.keyer,
		exec:   o.executor,
		mw:     o.middleware,
		logger: o.logger.WithCache(o.meta),
		meta:   o.meta,
	}, nil
}

// Cache returns the underlying cache.
func (l *Loader[V]) Cache() *cache.Cache[string, V] {
	return l.cache
}

// Load returns the cached value for raw, fetching it with fn on a miss.
// Absent, expired and evicted entries are all misses.
func (l *Loader[V]) Load(ctx context.Context, raw string, fn Func[V]) (V, error) {
	var zero V

	key, err := l.keyer.Key(raw)
	if err != nil {
		return zero, err
	}

	if v, ok := l.cache.Value(key); ok {
		return v, nil
	}

	ch := l.group.DoChan(key, func() (any, error) {
		return l.fill(context.WithoutCancel(ctx), key, fn)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Invalidate removes the entry for raw. It does not cancel or discard an
// in-flight fetch for the same key.
func (l *Loader[V]) Invalidate(raw string) error {
	key, err := l.keyer.Key(raw)
	if err != nil {
		return err
	}
	l.cache.Remove(key)
	return nil
}

func (l *Loader[V]) fill(ctx context.Context, key string, fn Func[V]) (any, error) {
	fetch := func(ctx context.Context, _ observe.CacheMeta) (any, error) {
		v, err := l.run(ctx, fn)
		return v, err
	}
	if l.mw != nil {
		fetch = l.mw.Wrap(fetch)
	}

	v, err := fetch(ctx, l.meta)
	if err != nil {
		return nil, err
	}

	value, ok := v.(V)
	if !ok && v != nil {
		return nil, fmt.Errorf("fetch: unexpected value type %T", v)
	}
	l.cache.Insert(key, value)
	l.logger.Debug(ctx, "cache filled", observe.Field{Key: "key", Value: key})
	return value, nil
}

func (l *Loader[V]) run(ctx context.Context, fn Func[V]) (V, error) {
	return resilience.Do[V](ctx, l.exec, fn)
}
