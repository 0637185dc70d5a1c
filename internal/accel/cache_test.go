package accel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/aurad/internal/metadata"
)

func TestCache_LookupMissThenHit(t *testing.T) {
	c := NewCache(10)

	_, ok := c.Lookup(0xDEAD)
	assert.False(t, ok)

	c.Store(0xDEAD, "I cannot fly.", nil)

	p, ok := c.Lookup(0xDEAD)
	require.True(t, ok)
	assert.Equal(t, "I cannot fly.", p.Text)
	assert.Equal(t, uint32(0xDEAD), p.Signature)
	assert.Equal(t, uint64(1), p.UseCount)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestCache_CapacityOneEviction(t *testing.T) {
	c := NewCache(1)

	c.Store(1, "first", nil)
	_, ok := c.Lookup(1)
	require.True(t, ok)

	// Storing a second signature evicts the first.
	c.Store(2, "second", nil)
	assert.Equal(t, 1, c.Len())

	_, ok = c.Lookup(1)
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2)

	c.Store(1, "one", nil)
	time.Sleep(time.Millisecond)
	c.Store(2, "two", nil)
	time.Sleep(time.Millisecond)

	// Touch 1 so 2 becomes the oldest.
	_, ok := c.Lookup(1)
	require.True(t, ok)
	time.Sleep(time.Millisecond)

	c.Store(3, "three", nil)

	_, ok = c.Lookup(1)
	assert.True(t, ok)
	_, ok = c.Lookup(3)
	assert.True(t, ok)
	_, ok = c.Lookup(2)
	assert.False(t, ok)
}

func TestCache_StoreExistingReplacesWithoutEviction(t *testing.T) {
	c := NewCache(2)

	c.Store(1, "one", nil)
	c.Store(2, "two", nil)
	c.Store(1, "one again", nil)

	assert.Equal(t, 2, c.Len())

	p, ok := c.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "one again", p.Text)
	// Replacement resets the use counter.
	assert.Equal(t, uint64(1), p.UseCount)

	_, ok = c.Lookup(2)
	assert.True(t, ok)
}

func TestCache_LookupReturnsOwnedCopy(t *testing.T) {
	c := NewCache(10)
	entries := []metadata.Entry{{Kind: metadata.KindTemplate, Value: 1}}
	c.Store(7, "text", entries)

	p1, ok := c.Lookup(7)
	require.True(t, ok)
	p1.Text = "mutated"
	p1.Entries[0].Value = 999

	p2, ok := c.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "text", p2.Text)
	assert.Equal(t, uint16(1), p2.Entries[0].Value)
}

func TestCache_StoreCopiesCallerEntries(t *testing.T) {
	c := NewCache(10)
	entries := []metadata.Entry{{Kind: metadata.KindTemplate, Value: 1}}
	c.Store(7, "text", entries)

	entries[0].Value = 999

	p, ok := c.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, uint16(1), p.Entries[0].Value)
}

func TestCache_HitRateNoLookups(t *testing.T) {
	c := NewCache(10)
	assert.Equal(t, 0.0, c.HitRate())
}

func TestCache_DefaultCapacity(t *testing.T) {
	c := NewCache(0)
	assert.Equal(t, DefaultCacheCapacity, c.Stats().Capacity)

	c = NewCache(-5)
	assert.Equal(t, DefaultCacheCapacity, c.Stats().Capacity)
}

func TestCache_TotalUses(t *testing.T) {
	c := NewCache(10)
	c.Store(1, "a", nil)
	c.Store(2, "b", nil)

	for i := 0; i < 3; i++ {
		c.Lookup(1)
	}
	c.Lookup(2)

	assert.Equal(t, uint64(4), c.Stats().TotalUses)
}

func TestCache_TopSignatures(t *testing.T) {
	c := NewCache(10)
	c.Store(10, "a", nil)
	c.Store(20, "b", nil)
	c.Store(30, "c", nil)

	c.Lookup(20)
	c.Lookup(20)
	c.Lookup(30)

	top := c.TopSignatures(2)
	assert.Equal(t, []uint32{20, 30}, top)

	// Ties order by ascending signature.
	c.Lookup(10)
	top = c.TopSignatures(3)
	assert.Equal(t, []uint32{20, 10, 30}, top)
}
