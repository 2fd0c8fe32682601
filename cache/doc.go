// Package cache provides DistanceCache, a concurrent memo of pairwise
// distances keyed by unordered index pairs.
//
// # Compute or fetch
//
// ComputeOrFetch canonicalizes (i, j) to a model.PairKey. A hit returns the
// stored value without calling the wrapped metric; a miss calls the metric,
// stores the result and returns it. Unindexed comparisons bypass the cache,
// and self-pairs are 0 without touching the metric or the map.
//
// # Concurrency
//
// Entries are spread over 64 shards selected by a hash of the canonical key.
// Each shard owns one RWMutex, so every key is guarded by exactly one lock.
// Concurrent misses on the same key may both run the metric, but only the
// first result is stored and every caller sees that value afterwards.
//
// # Persistence
//
// Serialize writes a complete dump in the persistence file format with
// entries sorted by key, so equal contents give identical bytes.
// Deserialize replaces the whole cache and leaves it untouched on failure.
// Save/Load do the same against local files, SaveTo/LoadFrom against a
// blobstore.Store.
package cache
