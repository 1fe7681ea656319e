// Package query caches the results of backend reads by key.
//
// A [Cache] keeps the last-known-good value for every [Key] it has loaded. Reads go through
// [Cache.Fetch], which returns the cached value while it is fresh and otherwise runs the loader.
// Concurrent fetches of one key share a single in-flight load.
//
// Nothing is refetched eagerly. [Cache.Invalidate] only marks matching entries stale and tells
// subscribers; the next read loads again. An invalidation that lands while a load is running
// leaves the entry stale once that load finishes, so late push events are never lost.
//
// Writes go through [Cache.Mutate], which runs once and invalidates the affected keys on success.
package query
