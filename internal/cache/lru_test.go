package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	_, ok := c.Get("a")
	require.True(t, ok)
	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_Expiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("token", 42)

	clock.advance(59 * time.Second)
	_, ok := c.Get("token")
	assert.True(t, ok)

	clock.advance(time.Second)
	_, ok = c.Get("token")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("old-%d", i), i)
	}
	clock.advance(2 * time.Minute)
	c.Set("fresh", 9)

	assert.Equal(t, 3, c.CleanExpired())
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_DeleteFunc(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("t1", 7)
	c.Set("t2", 7)
	c.Set("t3", 8)

	assert.Equal(t, 2, c.DeleteFunc(func(v int) bool { return v == 7 }))
	assert.Equal(t, 1, c.Size())
}

func TestLRUCache_DisabledWhenSizeZero(t *testing.T) {
	c, _ := newTestCache(0, time.Minute)
	c.Set("a", 1)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, Stats{Misses: 1}, c.Stats())
}

func TestManager_Sweep(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", 1)
	clock.advance(time.Minute)

	m := NewManager()
	m.Register(c)
	assert.Equal(t, 1, m.Sweep())

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
