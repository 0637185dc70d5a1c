package accel

import (
	"sort"
	"sync"
)

// DefaultPlatformCapacity bounds the platform frequency table.
const DefaultPlatformCapacity = 10000

// PatternCount pairs a signature with its platform-wide use count.
type PatternCount struct {
	Signature uint32 `json:"signature"`
	Count     uint64 `json:"count"`
}

// PlatformConfig holds platform aggregation tuning.
type PlatformConfig struct {
	// Frequency table capacity; 0 means DefaultPlatformCapacity
	MaxPatterns int
}

// PlatformStats is a deployment-wide snapshot.
type PlatformStats struct {
	Conversations   uint64                      `json:"conversations"`
	TrackedPatterns int                         `json:"tracked_patterns"`
	TopPatterns     []PatternCount              `json:"top_patterns"`
	Types           map[ConversationType]uint64 `json:"conversation_types"`
}

// Platform aggregates pattern usage across all conversations.
//
// The frequency table is capacity-bounded: once full, a new signature
// evicts the lowest-count entry. Counts for signatures that stay in the
// table are exact; a signature that was evicted and returns starts from
// zero again.
type Platform struct {
	mu            sync.Mutex
	config        PlatformConfig
	frequencies   map[uint32]uint64
	types         map[ConversationType]uint64
	conversations uint64
}

// NewPlatform creates an empty platform aggregator.
func NewPlatform(config PlatformConfig) *Platform {
	if config.MaxPatterns <= 0 {
		config.MaxPatterns = DefaultPlatformCapacity
	}
	return &Platform{
		config:      config,
		frequencies: make(map[uint32]uint64),
		types:       make(map[ConversationType]uint64),
	}
}

// Absorb folds a conversation's cached pattern usage into the platform
// view and tallies its classified type. Call it when a conversation
// ends; calling it mid-flight double-counts.
func (p *Platform) Absorb(c *Conversation) {
	counts := c.Cache().UseCounts()
	convType := c.ClassifyType()

	p.mu.Lock()
	defer p.mu.Unlock()

	for sig, count := range counts {
		p.addLocked(sig, count)
	}
	p.types[convType]++
	p.conversations++
}

// RecordUsage adds count uses of a signature, for feeds that arrive
// pattern by pattern rather than whole conversations.
func (p *Platform) RecordUsage(sig uint32, count uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.addLocked(sig, count)
}

// RecordConversation tallies a completed conversation of the given
// type without pattern detail.
func (p *Platform) RecordConversation(convType ConversationType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types[convType]++
	p.conversations++
}

// addLocked bumps a signature count, evicting the lowest-count entry
// when a new signature would exceed capacity. Caller holds the lock.
func (p *Platform) addLocked(sig uint32, count uint64) {
	if _, exists := p.frequencies[sig]; !exists && len(p.frequencies) >= p.config.MaxPatterns {
		p.evictColdestLocked()
	}
	p.frequencies[sig] += count
}

func (p *Platform) evictColdestLocked() {
	var (
		coldSig   uint32
		coldCount uint64
		found     bool
	)
	for sig, count := range p.frequencies {
		if !found || count < coldCount || (count == coldCount && sig < coldSig) {
			coldSig, coldCount, found = sig, count, true
		}
	}
	if found {
		delete(p.frequencies, coldSig)
	}
}

// TopPatterns returns up to n patterns by descending count, ascending
// signature on ties.
func (p *Platform) TopPatterns(n int) []PatternCount {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.topLocked(n)
}

func (p *Platform) topLocked(n int) []PatternCount {
	ranked := make([]PatternCount, 0, len(p.frequencies))
	for sig, count := range p.frequencies {
		ranked = append(ranked, PatternCount{Signature: sig, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Signature < ranked[j].Signature
	})

	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// Stats returns the platform snapshot, including the ten hottest
// patterns.
func (p *Platform) Stats() PlatformStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make(map[ConversationType]uint64, len(p.types))
	for t, n := range p.types {
		types[t] = n
	}
	return PlatformStats{
		Conversations:   p.conversations,
		TrackedPatterns: len(p.frequencies),
		TopPatterns:     p.topLocked(10),
		Types:           types,
	}
}
