// Package observe provides observability primitives for object caches.
//
// It is a pure instrumentation library: no caching, no transport, no I/O
// beyond exporter setup. Consumers attach CacheMetrics to a cache.Config as
// its Recorder and wrap fetch functions with Middleware.
package observe
