package cache

import (
	"sync"
	"unsafe"

	"github.com/gogpu/fontctx/memsize"
)

// Cache is a thread-safe LRU cache with a soft entry limit.
// A limit of 0 means unlimited.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	lru     lruList[K]
	limit   int

	hits      uint64
	misses    uint64
	evictions uint64
}

type entry[K comparable, V any] struct {
	value V
	node  *lruNode[K]
}

// Stats contains cache statistics.
type Stats struct {
	Len       int
	Limit     int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// New creates a cache holding at most limit entries.
func New[K comparable, V any](limit int) *Cache[K, V] {
	if limit < 0 {
		limit = 0
	}
	return &Cache[K, V]{
		entries: make(map[K]*entry[K, V]),
		limit:   limit,
	}
}

// Get returns the value stored under key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.lru.moveToFront(e.node)
	return e.value, true
}

// GetOrCreate returns the cached value for key, or calls create and caches
// its result. create runs with the cache locked, so concurrent callers for
// the same key wait instead of creating twice. Errors are not cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.hits++
		c.lru.moveToFront(e.node)
		return e.value, nil
	}
	c.misses++

	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.insert(key, v)
	return v, nil
}

// insert adds a new entry and evicts the oldest ones beyond the limit.
// Caller must hold c.mu.
func (c *Cache[K, V]) insert(key K, v V) {
	c.entries[key] = &entry[K, V]{value: v, node: c.lru.pushFront(key)}
	for c.limit > 0 && c.lru.len > c.limit {
		oldest, ok := c.lru.removeOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
		c.evictions++
	}
}

// Delete removes key. It reports whether the key was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.lru.unlink(e.node)
	delete(c.entries, key)
	return true
}

// Clear removes all entries. Statistics are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*entry[K, V])
	c.lru = lruList[K]{}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Limit:     c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// SizeOf returns the size of the cache bookkeeping: the entry table, the
// entry records and LRU nodes. Values are measured with valueSize, which
// may be nil to skip them. The Cache struct itself is not counted.
func (c *Cache[K, V]) SizeOf(ops *memsize.Ops, valueSize func(*memsize.Ops, V) uintptr) uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := memsize.MapSize(c.entries)
	for _, e := range c.entries {
		size += unsafe.Sizeof(*e) + unsafe.Sizeof(*e.node)
		if valueSize != nil {
			size += valueSize(ops, e.value)
		}
	}
	return size
}
