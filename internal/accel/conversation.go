package accel

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/aurad/internal/metadata"
)

// baselineProcessingMs is the uncached cost of decompressing and
// classifying one response, measured against the reference pipeline.
// Speedup factors are reported relative to it.
const baselineProcessingMs = 13.0

// ConversationType labels a conversation by its traffic shape.
type ConversationType string

const (
	ConversationUnknown ConversationType = "unknown"
	ConversationQA      ConversationType = "qa"
	ConversationChat    ConversationType = "chat"
	ConversationSupport ConversationType = "support"
)

// ConversationConfig holds per-conversation tuning.
type ConversationConfig struct {
	// Pattern cache capacity; 0 means DefaultCacheCapacity
	CacheCapacity int

	// Enable predictive pattern preloading
	Preload bool
}

// ProcessingResult is the outcome of processing one message.
type ProcessingResult struct {
	Pattern        Pattern
	CacheHit       bool
	ProcessingTime time.Duration
}

// ConversationStats is a point-in-time view of one conversation.
type ConversationStats struct {
	ID           string           `json:"id"`
	MessageCount int              `json:"message_count"`
	Cache        CacheStats       `json:"cache"`
	Improvement  float64          `json:"improvement_factor"`
	Type         ConversationType `json:"type"`
}

// Conversation accelerates message processing within one conversation
// by caching work keyed on metadata signatures.
type Conversation struct {
	id     string
	config ConversationConfig
	cache  *Cache

	mu           sync.Mutex
	messageCount int
	durations    []time.Duration
}

// NewConversation creates a conversation accelerator with a fresh
// cache and a generated ID.
func NewConversation(config ConversationConfig) *Conversation {
	return newConversation("", config)
}

func newConversation(id string, config ConversationConfig) *Conversation {
	if id == "" {
		id = uuid.NewString()
	}
	return &Conversation{
		id:     id,
		config: config,
		cache:  NewCache(config.CacheCapacity),
	}
}

// ID returns the conversation identifier.
func (c *Conversation) ID() string {
	return c.id
}

// Cache exposes the underlying pattern cache.
func (c *Conversation) Cache() *Cache {
	return c.cache
}

// ProcessMessage resolves one message through the cache. On a miss,
// produce runs to compute the text and metadata entries, and the result
// is cached for the rest of the conversation.
func (c *Conversation) ProcessMessage(sig uint32, produce func() (string, []metadata.Entry)) ProcessingResult {
	start := time.Now()

	pattern, hit := c.cache.Lookup(sig)
	if !hit {
		text, entries := produce()
		pattern = c.cache.Store(sig, text, entries)
	}

	elapsed := time.Since(start)

	c.mu.Lock()
	c.messageCount++
	c.durations = append(c.durations, elapsed)
	c.mu.Unlock()

	return ProcessingResult{
		Pattern:        pattern,
		CacheHit:       hit,
		ProcessingTime: elapsed,
	}
}

// Speedup reports the factor by which elapsed beats the uncached
// baseline. Non-positive durations report 1.0.
func (c *Conversation) Speedup(elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 1.0
	}
	elapsedMs := float64(elapsed.Nanoseconds()) / 1e6
	return baselineProcessingMs / elapsedMs
}

// MessageCount returns the number of processed messages.
func (c *Conversation) MessageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messageCount
}

// Stats returns the conversation statistics snapshot.
//
// The improvement factor compares the mean processing time of the
// first five messages against the last five; below ten samples, or
// with a zero recent mean, it reports 1.0.
func (c *Conversation) Stats() ConversationStats {
	c.mu.Lock()
	count := c.messageCount
	improvement := improvementFactor(c.durations)
	c.mu.Unlock()

	return ConversationStats{
		ID:           c.id,
		MessageCount: count,
		Cache:        c.cache.Stats(),
		Improvement:  improvement,
		Type:         c.classifyWithCount(count),
	}
}

// ClassifyType labels the conversation from its traffic so far.
// Fewer than three messages is too little signal to call.
func (c *Conversation) ClassifyType() ConversationType {
	return c.classifyWithCount(c.MessageCount())
}

func (c *Conversation) classifyWithCount(messages int) ConversationType {
	if messages < 3 {
		return ConversationUnknown
	}
	switch hitRate := c.cache.HitRate(); {
	case hitRate > 0.8:
		return ConversationQA
	case hitRate > 0.5:
		return ConversationChat
	default:
		return ConversationSupport
	}
}

// PredictNextPatterns returns the signatures most likely to recur,
// ranked by historical use. Returns nil unless preloading is enabled.
func (c *Conversation) PredictNextPatterns(n int) []uint32 {
	if !c.config.Preload {
		return nil
	}
	return c.cache.TopSignatures(n)
}

func improvementFactor(durations []time.Duration) float64 {
	if len(durations) < 10 {
		return 1.0
	}

	first := meanMs(durations[:5])
	last := meanMs(durations[len(durations)-5:])
	if last <= 0 {
		return 1.0
	}
	return first / last
}

func meanMs(durations []time.Duration) float64 {
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return float64(total.Nanoseconds()) / 1e6 / float64(len(durations))
}
