package di

import (
	"reflect"
	"time"

	"github.com/sectrean/dicore/internal/cache"
)

// ServiceCache stores created Singleton services by key.
//
// The Container calls a ServiceCache while holding its lock, so implementations
// do not need to be safe for concurrent use on their own.
// Removing a service from the cache never disposes it.
type ServiceCache interface {
	Get(key reflect.Type) (any, bool)
	Put(key reflect.Type, val any)
	Remove(key reflect.Type)
	Clear()
	Optimize() OptimizeResult
	Len() int
}

// OptimizeResult reports what a cache optimization pass removed.
type OptimizeResult struct {
	ExpiredRemoved int
	LRURemoved     int
	FinalSize      int
}

// CacheEntry describes a cached service.
type CacheEntry struct {
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64
	Size         int64
}

// CacheConfig configures [NewServiceCache].
type CacheConfig struct {
	// MaxSize is the maximum number of cached services. Zero or less means unbounded.
	MaxSize int

	// TTL is how long a service stays cached after it was created. Zero or less disables expiry.
	TTL time.Duration

	// Now returns the current time. Defaults to [time.Now].
	Now func() time.Time

	// SizeFunc estimates the memory used by a service, in bytes.
	// The default counts the size of the value and, for pointers, the value it points to.
	SizeFunc func(val any) int64
}

// MemoryCache is the default [ServiceCache].
//
// Entries expire once TTL has elapsed since they were stored.
// When full, the entry with the lowest access count is evicted first;
// ties go to the entry stored first.
type MemoryCache struct {
	c *cache.Cache[reflect.Type, any]
}

var _ ServiceCache = (*MemoryCache)(nil)

// NewServiceCache creates a [MemoryCache].
func NewServiceCache(cfg CacheConfig) *MemoryCache {
	return &MemoryCache{
		c: cache.New[reflect.Type](cache.Config[any]{
			MaxSize: cfg.MaxSize,
			TTL:     cfg.TTL,
			Now:     cfg.Now,
			SizeOf:  cfg.SizeFunc,
		}),
	}
}

// Get returns the cached service for key and counts the access.
func (m *MemoryCache) Get(key reflect.Type) (any, bool) {
	return m.c.Get(key)
}

// Put stores a service, evicting another one if the cache is full.
func (m *MemoryCache) Put(key reflect.Type, val any) {
	m.c.Put(key, val)
}

// Remove drops the service for key.
func (m *MemoryCache) Remove(key reflect.Type) {
	m.c.Remove(key)
}

// Clear drops every service.
func (m *MemoryCache) Clear() {
	m.c.Clear()
}

// Optimize removes expired services, then the least accessed ones until
// the cache is within its maximum size.
func (m *MemoryCache) Optimize() OptimizeResult {
	res := m.c.Optimize()
	return OptimizeResult{
		ExpiredRemoved: res.ExpiredRemoved,
		LRURemoved:     res.LRURemoved,
		FinalSize:      res.FinalSize,
	}
}

// Len returns the number of cached services, including expired ones not yet removed.
func (m *MemoryCache) Len() int {
	return m.c.Len()
}

// Size returns the estimated memory used by cached services, in bytes.
func (m *MemoryCache) Size() int64 {
	return m.c.Size()
}

// Entry returns the statistics for a cached service without counting an access.
func (m *MemoryCache) Entry(key reflect.Type) (CacheEntry, bool) {
	e, ok := m.c.Peek(key)
	if !ok {
		return CacheEntry{}, false
	}

	return CacheEntry(e), true
}

// These are implemented by [MemoryCache] and used for diagnostics when available.
type (
	cacheSizer interface {
		Size() int64
	}
	cacheInspector interface {
		Entry(key reflect.Type) (CacheEntry, bool)
	}
)
