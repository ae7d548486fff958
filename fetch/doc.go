// Package fetch reads through a cache.Cache on behalf of callers.
//
// A Loader turns a raw identifier into a key with a Keyer, returns the stored
// value on a hit, and on a miss runs the caller's Func once per key no matter
// how many goroutines are waiting. The Func may be guarded by a
// resilience.Executor and instrumented by an observe.Middleware. Only
// successful results are inserted; failures leave the cache untouched.
//
// Keys are the caller's business: the cache compares them exactly. URLKeyer
// folds equivalent spellings of a URL together before they reach the cache.
package fetch
