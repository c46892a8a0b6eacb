// Package cache provides a TTL cache used to memoize expensive operations:
// search responses, file content reads, and query embeddings.
//
// Entries expire lazily: an expired entry is evicted when it is next read,
// not by a background sweeper. Capacity is bounded by an LRU, so a cache
// never grows past its configured size even if nothing expires.
//
// Each concern owns its own cache instance with its own TTL. The
// recommended lifetimes are exported as constants:
//
//	content := cache.New[string](cache.DefaultCapacity, cache.ContentTTL)
//	search := cache.New[[]types.SearchResult](cache.DefaultCapacity, cache.SearchTTL)
//	vector := cache.New[[]float32](cache.DefaultCapacity, cache.VectorTTL)
//
// Keys for memoized calls are derived with Key, which hashes the operation
// name, its positional arguments, and its keyword arguments in sorted
// order, so two call sites that pass the same options in different order
// share an entry.
package cache
