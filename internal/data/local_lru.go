package data

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// LocalLRU is a small in-memory LRU cache with per-entry TTL. It holds synthesized prompt audio
// as the first tier in front of Redis.
// Concurrency: methods are safe for concurrent use.
type LocalLRU struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	index    map[string]*list.Element
	now      func() time.Time

	hits   atomic.Uint64
	misses atomic.Uint64
	evicts atomic.Uint64
}

type lruItem struct {
	key     string
	value   []byte
	expires time.Time // zero means no expiry
}

// LocalLRUConfig groups constructor options.
type LocalLRUConfig struct {
	Capacity int
	Now      func() time.Time
}

// DefaultLocalLRUCapacity is used when LocalLRUConfig.Capacity is not positive.
const DefaultLocalLRUCapacity = 256

// NewLocalLRU creates a new LocalLRU with the given config.
func NewLocalLRU(cfg LocalLRUConfig) *LocalLRU {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultLocalLRUCapacity
	}
	nowFn := cfg.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	return &LocalLRU{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
		now:      nowFn,
	}
}

// Get returns the value for key if present and not expired.
func (c *LocalLRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, found := c.index[key]
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	item := el.Value.(*lruItem)
	if c.expired(item) {
		c.remove(el)
		c.misses.Add(1)
		return nil, false
	}
	c.order.MoveToFront(el)
	c.hits.Add(1)
	return item.value, true
}

// Set inserts or updates a value with TTL.
// ttl <= 0 means no expiration.
func (c *LocalLRU) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = c.now().Add(ttl)
	}

	if el, found := c.index[key]; found {
		item := el.Value.(*lruItem)
		item.value = value
		item.expires = expires
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(&lruItem{key: key, value: value, expires: expires})
	for c.order.Len() > c.capacity {
		c.remove(c.order.Back())
		c.evicts.Add(1)
	}
}

// Delete removes a key from the cache.
func (c *LocalLRU) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.remove(el)
		return true
	}
	return false
}

// Len returns the current number of items in the cache.
func (c *LocalLRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// LocalLRUStats are simple counters for observability.
type LocalLRUStats struct {
	Hits, Misses, Evictions uint64
	Size, Capacity          int
}

// Stats returns a snapshot of counters and sizes.
func (c *LocalLRU) Stats() LocalLRUStats {
	return LocalLRUStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evicts.Load(),
		Size:      c.Len(),
		Capacity:  c.capacity,
	}
}

// caller must hold c.mu
func (c *LocalLRU) expired(item *lruItem) bool {
	return !item.expires.IsZero() && c.now().After(item.expires)
}

// caller must hold c.mu
func (c *LocalLRU) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.index, el.Value.(*lruItem).key)
}
