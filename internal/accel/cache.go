package accel

import (
	"sort"
	"sync"
	"time"

	"github.com/fyrsmithlabs/aurad/internal/metadata"
)

// DefaultCacheCapacity is the per-conversation pattern budget.
const DefaultCacheCapacity = 1000

// Pattern is one cached processing outcome.
type Pattern struct {
	Signature uint32
	Text      string
	Entries   []metadata.Entry
	UseCount  uint64
	CreatedAt time.Time
	LastUsed  time.Time
}

// clone returns an owned deep copy.
func (p *Pattern) clone() Pattern {
	out := *p
	if p.Entries != nil {
		out.Entries = make([]metadata.Entry, len(p.Entries))
		copy(out.Entries, p.Entries)
	}
	return out
}

// CacheStats is a point-in-time cache snapshot.
type CacheStats struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
	TotalUses uint64  `json:"total_uses"`
}

// Cache is a signature-keyed pattern store scoped to one conversation.
//
// When full, storing a new signature evicts the pattern with the oldest
// last-used time. Capacities are small enough that the linear eviction
// scan stays off any profile.
type Cache struct {
	mu       sync.Mutex
	capacity int
	patterns map[uint32]*Pattern
	hits     uint64
	misses   uint64
}

// NewCache creates a cache with the given capacity. Non-positive
// capacities fall back to DefaultCacheCapacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		capacity: capacity,
		patterns: make(map[uint32]*Pattern, capacity),
	}
}

// Lookup returns an owned copy of the pattern for sig. A hit bumps the
// use count and last-used time; a miss only moves the miss counter.
func (c *Cache) Lookup(sig uint32) (Pattern, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.patterns[sig]
	if !ok {
		c.misses++
		return Pattern{}, false
	}

	c.hits++
	p.UseCount++
	p.LastUsed = time.Now()
	return p.clone(), true
}

// Store inserts or replaces the pattern for sig and returns an owned
// copy of what was stored. Inserting a new signature into a full cache
// evicts the least recently used pattern first.
func (c *Cache) Store(sig uint32, text string, entries []metadata.Entry) Pattern {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.patterns[sig]; !exists && len(c.patterns) >= c.capacity {
		c.evictOldest()
	}

	now := time.Now()
	p := &Pattern{
		Signature: sig,
		Text:      text,
		CreatedAt: now,
		LastUsed:  now,
	}
	if entries != nil {
		p.Entries = make([]metadata.Entry, len(entries))
		copy(p.Entries, entries)
	}
	c.patterns[sig] = p
	return p.clone()
}

// evictOldest removes the entry with the oldest last-used time.
// Caller holds the lock.
func (c *Cache) evictOldest() {
	var (
		oldestSig  uint32
		oldestTime time.Time
		found      bool
	)
	for sig, p := range c.patterns {
		if !found || p.LastUsed.Before(oldestTime) {
			oldestSig, oldestTime, found = sig, p.LastUsed, true
		}
	}
	if found {
		delete(c.patterns, oldestSig)
	}
}

// HitRate returns hits/(hits+misses), or 0 before any lookup.
func (c *Cache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hitRateLocked()
}

func (c *Cache) hitRateLocked() float64 {
	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return float64(c.hits) / float64(total)
}

// Len returns the number of cached patterns.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.patterns)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var uses uint64
	for _, p := range c.patterns {
		uses += p.UseCount
	}
	return CacheStats{
		Size:      len(c.patterns),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		HitRate:   c.hitRateLocked(),
		TotalUses: uses,
	}
}

// UseCounts returns a snapshot of per-signature use counts.
func (c *Cache) UseCounts() map[uint32]uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[uint32]uint64, len(c.patterns))
	for sig, p := range c.patterns {
		out[sig] = p.UseCount
	}
	return out
}

// TopSignatures returns up to n signatures ordered by descending use
// count, ascending signature on ties.
func (c *Cache) TopSignatures(n int) []uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	type sigCount struct {
		sig   uint32
		count uint64
	}
	ranked := make([]sigCount, 0, len(c.patterns))
	for sig, p := range c.patterns {
		ranked = append(ranked, sigCount{sig, p.UseCount})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].sig < ranked[j].sig
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]uint32, 0, n)
	for _, rc := range ranked[:n] {
		out = append(out, rc.sig)
	}
	return out
}
