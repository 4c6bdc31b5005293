// Package cache provides a generic LRU cache with load-through and hit
// statistics. It backs the compiled-expression cache of the query package
// and the parse cache of the HTTP server.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// DefaultCapacity is used when a non-positive capacity is given.
const DefaultCapacity = 256

// LRU is a thread-safe least-recently-used cache.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	items    map[K]*list.Element
	order    *list.List
	capacity int
	onEvict  func(K, V)

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
	loads  atomic.Uint64
	fails  atomic.Uint64
}

type item[K comparable, V any] struct {
	key   K
	value V
}

// New creates an LRU holding at most capacity entries.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LRU[K, V]{
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
		capacity: capacity,
	}
}

// OnEvict registers fn to be called, with the lock held, for every entry
// pushed out by capacity.
func (c *LRU[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	c.onEvict = fn
	c.mu.Unlock()
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	return el.Value.(*item[K, V]).value, true
}

// Peek returns the value for key without touching recency or statistics.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*item[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key.
func (c *LRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set(key, value)
}

func (c *LRU[K, V]) set(key K, value V) {
	if el, ok := c.items[key]; ok {
		el.Value.(*item[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	for c.order.Len() >= c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.order.PushFront(&item[K, V]{key: key, value: value})
}

func (c *LRU[K, V]) evictOldest() {
	el := c.order.Back()
	if el == nil {
		return
	}
	it := c.order.Remove(el).(*item[K, V])
	delete(c.items, it.key)
	c.evicts.Add(1)
	if c.onEvict != nil {
		c.onEvict(it.key, it.value)
	}
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Failed loads are not cached. The lock is held during load, so
// concurrent callers for the same key load once.
func (c *LRU[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.order.MoveToFront(el)
		return el.Value.(*item[K, V]).value, nil
	}
	c.misses.Add(1)
	c.loads.Add(1)
	v, err := load()
	if err != nil {
		c.fails.Add(1)
		return v, err
	}
	c.set(key, v)
	return v, nil
}

// Remove deletes key and reports whether it was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if ok {
		c.order.Remove(el)
		delete(c.items, key)
	}
	return ok
}

// Resize changes the capacity, evicting as needed.
func (c *LRU[K, V]) Resize(capacity int) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.capacity = capacity
	for c.order.Len() > capacity {
		c.evictOldest()
	}
}

// Len returns the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the keys from most to least recently used.
func (c *LRU[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]K, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*item[K, V]).key)
	}
	return keys
}

// Purge removes every entry. Statistics are kept.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// Stats is a point-in-time view of cache statistics.
type Stats struct {
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	Evicts   uint64  `json:"evicts"`
	Loads    uint64  `json:"loads"`
	Failures uint64  `json:"failures"`
	HitRate  float64 `json:"hit_rate"`
}

// Stats returns the current statistics.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	size, capacity := c.order.Len(), c.capacity
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var rate float64
	if total := hits + misses; total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Size:     size,
		Capacity: capacity,
		Hits:     hits,
		Misses:   misses,
		Evicts:   c.evicts.Load(),
		Loads:    c.loads.Load(),
		Failures: c.fails.Load(),
		HitRate:  rate,
	}
}
