package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache_SetGet(t *testing.T) {
	c := NewTTLCache(10, time.Minute)

	c.Set("a", []byte("one"))
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("one"), got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache(10, 10*time.Millisecond)

	c.Set("a", []byte("one"))
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size(), "expired entry should be lazily removed")
}

func TestTTLCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTTLCache(2, time.Minute)

	c.Set("a", []byte("one"))
	c.Set("b", []byte("two"))

	// Touch "a" so "b" becomes the eviction victim.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", []byte("three"))

	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestTTLCache_UpdateInPlace(t *testing.T) {
	c := NewTTLCache(2, time.Minute)

	c.Set("a", []byte("one"))
	c.Set("a", []byte("uno"))

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("uno"), got)
	assert.Equal(t, 1, c.Size())
}

func TestTTLCache_Invalidate(t *testing.T) {
	c := NewTTLCache(10, time.Minute)

	c.Set("a", []byte("one"))
	c.Set("b", []byte("two"))

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.InvalidateAll()
	assert.Equal(t, 0, c.Size())
}
