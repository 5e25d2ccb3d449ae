package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/dicore/internal/cache"
	"github.com/sectrean/dicore/internal/testutils"
)

func Test_Cache_GetPut(t *testing.T) {
	t.Run("miss", func(t *testing.T) {
		c := cache.New[string, int](cache.Config[int]{})

		got, ok := c.Get("a")
		assert.False(t, ok)
		assert.Zero(t, got)
	})

	t.Run("hit counts access", func(t *testing.T) {
		clock := testutils.NewClock()
		c := cache.New[string, int](cache.Config[int]{Now: clock.Now})
		c.Put("a", 1)

		clock.Advance(time.Second)
		got, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 1, got)

		e, ok := c.Peek("a")
		require.True(t, ok)
		assert.Equal(t, int64(1), e.AccessCount)
		assert.Equal(t, clock.Now(), e.LastAccessed)
		assert.Equal(t, clock.Now().Add(-time.Second), e.CreatedAt)
	})

	t.Run("put replaces", func(t *testing.T) {
		c := cache.New[string, int](cache.Config[int]{MaxSize: 1})
		c.Put("a", 1)
		c.Put("a", 2)

		got, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, 2, got)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("remove", func(t *testing.T) {
		c := cache.New[string, int](cache.Config[int]{})
		c.Put("a", 1)

		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("clear", func(t *testing.T) {
		c := cache.New[string, int](cache.Config[int]{})
		c.Put("a", 1)
		c.Put("b", 2)

		c.Clear()
		assert.Equal(t, 0, c.Len())
		_, ok := c.Get("a")
		assert.False(t, ok)
	})
}

func Test_Cache_TTL(t *testing.T) {
	clock := testutils.NewClock()
	c := cache.New[string, int](cache.Config[int]{TTL: time.Second, Now: clock.Now})
	c.Put("a", 1)

	clock.Advance(time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok, "entry is still valid at exactly the TTL")

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is removed on access")
}

func Test_Cache_NoTTL(t *testing.T) {
	clock := testutils.NewClock()
	c := cache.New[string, int](cache.Config[int]{Now: clock.Now})
	c.Put("a", 1)

	clock.Advance(1000 * time.Hour)
	_, ok := c.Get("a")
	assert.True(t, ok)
}

func Test_Cache_Eviction(t *testing.T) {
	t.Run("least accessed is evicted first", func(t *testing.T) {
		c := cache.New[string, int](cache.Config[int]{MaxSize: 2})
		c.Put("a", 1)
		c.Put("b", 2)
		for range 5 {
			c.Get("a")
		}
		c.Get("b")

		c.Put("c", 3)
		assert.Equal(t, 2, c.Len())
		_, ok := c.Peek("b")
		assert.False(t, ok, "b had fewer accesses than a")

		c.Put("d", 4)
		_, ok = c.Peek("c")
		assert.False(t, ok, "c has never been accessed")
		_, ok = c.Peek("a")
		assert.True(t, ok)
		_, ok = c.Peek("d")
		assert.True(t, ok)
	})

	t.Run("ties evict earliest insertion", func(t *testing.T) {
		c := cache.New[string, int](cache.Config[int]{MaxSize: 2})
		c.Put("a", 1)
		c.Put("b", 2)

		c.Put("c", 3)
		_, ok := c.Peek("a")
		assert.False(t, ok)
		_, ok = c.Peek("b")
		assert.True(t, ok)
	})

	t.Run("expired entry is evicted before least accessed", func(t *testing.T) {
		clock := testutils.NewClock()
		c := cache.New[string, int](cache.Config[int]{MaxSize: 2, TTL: time.Minute, Now: clock.Now})
		c.Put("a", 1)
		clock.Advance(30 * time.Second)
		c.Put("b", 2)
		c.Get("a")
		c.Get("a")

		clock.Advance(45 * time.Second)
		c.Put("c", 3)

		_, ok := c.Peek("a")
		assert.False(t, ok, "a has expired")
		_, ok = c.Peek("b")
		assert.True(t, ok)
	})
}

func Test_Cache_Optimize(t *testing.T) {
	clock := testutils.NewClock()
	c := cache.New[string, int](cache.Config[int]{MaxSize: 10, TTL: time.Minute, Now: clock.Now})

	c.Put("old1", 1)
	c.Put("old2", 2)
	clock.Advance(2 * time.Minute)
	c.Put("a", 3)
	c.Put("b", 4)
	c.Get("b")

	got := c.Optimize()
	assert.Equal(t, cache.OptimizeResult{ExpiredRemoved: 2, LRURemoved: 0, FinalSize: 2}, got)

	t.Run("trims to max size by access count", func(t *testing.T) {
		c := cache.New[int, int](cache.Config[int]{MaxSize: 4})
		for i := range 4 {
			c.Put(i, i)
		}
		c.Get(0)
		c.Get(0)
		c.Get(2)
		c.Get(3)
		c.Get(3)

		c.SetMaxSize(2)
		assert.Equal(t, 4, c.Len(), "shrinking does not evict until optimized")

		res := c.Optimize()
		assert.Equal(t, cache.OptimizeResult{ExpiredRemoved: 0, LRURemoved: 2, FinalSize: 2}, res)

		_, ok := c.Peek(0)
		assert.True(t, ok)
		_, ok = c.Peek(3)
		assert.True(t, ok)
	})
}

func Test_Cache_Size(t *testing.T) {
	c := cache.New[string, int](cache.Config[int]{SizeOf: func(v int) int64 { return int64(v) }})
	c.Put("a", 10)
	c.Put("b", 32)

	assert.Equal(t, int64(42), c.Size())

	e, ok := c.Peek("b")
	require.True(t, ok)
	assert.Equal(t, int64(32), e.Size)
}

func Test_EstimateSize(t *testing.T) {
	type payload struct {
		A int64
		B int64
	}

	tests := []struct {
		name string
		val  any
		want int64
	}{
		{name: "nil", val: nil, want: 0},
		{name: "int64", val: int64(1), want: 8},
		{name: "struct", val: payload{}, want: 16},
		{name: "pointer", val: &payload{}, want: 8 + 16},
		{name: "nil pointer", val: (*payload)(nil), want: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cache.EstimateSize(tt.val))
		})
	}
}
