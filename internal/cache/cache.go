// Package cache implements a size-bounded cache with TTL expiry that evicts the
// least accessed entry when full.
package cache

import (
	"container/list"
	"reflect"
	"sync"
	"time"
)

// Config configures a [Cache].
type Config[V any] struct {
	// MaxSize is the maximum number of entries. Zero or less means unbounded.
	MaxSize int

	// TTL is how long an entry lives after it was stored. Zero or less disables expiry.
	TTL time.Duration

	// Now returns the current time. Defaults to [time.Now].
	Now func() time.Time

	// SizeOf estimates the size of a value in bytes. Defaults to [EstimateSize].
	SizeOf func(V) int64
}

// Cache stores values by key.
//
// Entries expire once TTL has elapsed since they were stored. When the cache is full,
// Put evicts the entry with the lowest access count; ties go to the entry stored first.
//
// A Cache is safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	sizeOf  func(V) int64
}

type entry[K comparable, V any] struct {
	key          K
	value        V
	createdAt    time.Time
	lastAccessed time.Time
	accessCount  int64
	size         int64
}

// Entry describes a cached value without touching its access statistics.
type Entry struct {
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64
	Size         int64
}

// OptimizeResult reports what [Cache.Optimize] removed.
type OptimizeResult struct {
	ExpiredRemoved int
	LRURemoved     int
	FinalSize      int
}

// New creates an empty [Cache].
func New[K comparable, V any](cfg Config[V]) *Cache[K, V] {
	c := &Cache[K, V]{
		entries: make(map[K]*list.Element),
		order:   list.New(),
		maxSize: cfg.MaxSize,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		sizeOf:  cfg.SizeOf,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sizeOf == nil {
		c.sizeOf = func(v V) int64 { return EstimateSize(v) }
	}

	return c
}

// Get returns the value stored for key.
//
// An expired entry is removed and reported as absent.
// A hit increments the access count of the entry.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	now := c.now()
	e := el.Value.(*entry[K, V])
	if c.expired(e, now) {
		c.removeElement(el)
		return zero, false
	}

	e.accessCount++
	e.lastAccessed = now
	return e.value, true
}

// Peek returns the statistics of the entry for key, without counting an access.
func (c *Cache[K, V]) Peek(key K) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}

	e := el.Value.(*entry[K, V])
	return Entry{
		CreatedAt:    e.createdAt,
		LastAccessed: e.lastAccessed,
		AccessCount:  e.accessCount,
		Size:         e.size,
	}, true
}

// Put stores value for key, replacing any existing entry.
//
// If the cache is full, an expired entry is evicted if there is one,
// otherwise the entry with the lowest access count.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.removeElement(el)
	}

	now := c.now()
	if c.maxSize > 0 && len(c.entries) >= c.maxSize {
		c.evictOne(now)
	}

	e := &entry[K, V]{
		key:          key,
		value:        value,
		createdAt:    now,
		lastAccessed: now,
		size:         c.sizeOf(value),
	}
	c.entries[key] = c.order.PushBack(e)
}

// Remove deletes the entry for key. It returns false if there was none.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return false
	}

	c.removeElement(el)
	return true
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

// SetMaxSize changes the maximum number of entries.
//
// Shrinking does not evict anything by itself; the next Put evicts one entry
// and [Cache.Optimize] trims the cache to the new size.
func (c *Cache[K, V]) SetMaxSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = n
}

// Len returns the number of entries, including expired entries not yet removed.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Size returns the estimated size in bytes of all entries.
func (c *Cache[K, V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var total int64
	for el := c.order.Front(); el != nil; el = el.Next() {
		total += el.Value.(*entry[K, V]).size
	}
	return total
}

// Optimize removes all expired entries, then removes the least accessed entries
// until the cache is within its maximum size.
func (c *Cache[K, V]) Optimize() OptimizeResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res OptimizeResult
	now := c.now()

	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if c.expired(el.Value.(*entry[K, V]), now) {
			c.removeElement(el)
			res.ExpiredRemoved++
		}
		el = next
	}

	if c.maxSize > 0 {
		for len(c.entries) > c.maxSize {
			c.removeElement(c.leastAccessed())
			res.LRURemoved++
		}
	}

	res.FinalSize = len(c.entries)
	return res
}

func (c *Cache[K, V]) expired(e *entry[K, V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(e.createdAt) > c.ttl
}

func (c *Cache[K, V]) evictOne(now time.Time) {
	for el := c.order.Front(); el != nil; el = el.Next() {
		if c.expired(el.Value.(*entry[K, V]), now) {
			c.removeElement(el)
			return
		}
	}

	if el := c.leastAccessed(); el != nil {
		c.removeElement(el)
	}
}

// leastAccessed returns the first element in insertion order with the lowest access count.
func (c *Cache[K, V]) leastAccessed() *list.Element {
	var least *list.Element
	for el := c.order.Front(); el != nil; el = el.Next() {
		if least == nil || el.Value.(*entry[K, V]).accessCount < least.Value.(*entry[K, V]).accessCount {
			least = el
		}
	}
	return least
}

func (c *Cache[K, V]) removeElement(el *list.Element) {
	e := c.order.Remove(el).(*entry[K, V])
	delete(c.entries, e.key)
}

// EstimateSize returns a rough size in bytes for v.
//
// Pointers count the pointer itself plus the value they point to.
// Nothing referenced further (slices, maps, nested pointers) is followed.
func EstimateSize(v any) int64 {
	if v == nil {
		return 0
	}

	rv := reflect.ValueOf(v)
	size := int64(rv.Type().Size())
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		size += int64(rv.Type().Elem().Size())
	}
	return size
}
