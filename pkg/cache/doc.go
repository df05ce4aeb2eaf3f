// Package cache provides a generic, thread-safe LRU map.
//
// The store uses it to bound the provisional-record fingerprint index and the
// in-memory push source uses it to keep one broadcaster per live topic,
// closing the broadcaster when its topic falls out of the cache.
//
//	topics := cache.New[string, *broadcast.MemoryBroadcaster[[]byte]](256,
//		cache.WithEvictCallback(func(_ string, b *broadcast.MemoryBroadcaster[[]byte]) {
//			b.Close()
//		}),
//	)
//
// All operations are O(1) except Keys and Clear.
package cache
