package accel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/metadata"
)

const tracerName = "github.com/fyrsmithlabs/aurad/internal/accel"
const meterName = "accel"

// ManagerConfig holds configuration for the acceleration manager.
type ManagerConfig struct {
	Conversation ConversationConfig
	Platform     PlatformConfig
}

// ManagerStats aggregates the live acceleration picture for the
// stats endpoint and the dashboard.
type ManagerStats struct {
	ActiveConversations int           `json:"active_conversations"`
	Messages            int           `json:"messages"`
	Hits                uint64        `json:"hits"`
	Misses              uint64        `json:"misses"`
	HitRate             float64       `json:"hit_rate"`
	Platform            PlatformStats `json:"platform"`
}

// Manager tracks live conversation accelerators and folds finished
// conversations into the platform aggregate.
type Manager struct {
	config   ManagerConfig
	logger   *zap.Logger
	platform *Platform

	mu            sync.Mutex
	conversations map[string]*Conversation

	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	lookupCounter       metric.Int64Counter
	processDuration     metric.Float64Histogram
	speedupHist         metric.Float64Histogram
	activeConversations metric.Int64UpDownCounter
}

// NewManager creates an acceleration manager.
func NewManager(config ManagerConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Manager{
		config:        config,
		logger:        logger,
		platform:      NewPlatform(config.Platform),
		conversations: make(map[string]*Conversation),
		tracer:        otel.Tracer(tracerName),
		meter:         otel.Meter(meterName),
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return m, nil
}

// Conversation returns the accelerator for id, creating it on first
// use. An empty id creates a conversation with a generated ID.
func (m *Manager) Conversation(id string) *Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != "" {
		if c, ok := m.conversations[id]; ok {
			return c
		}
	}

	c := newConversation(id, m.config.Conversation)
	m.conversations[c.ID()] = c
	m.activeConversations.Add(context.Background(), 1)
	return c
}

// Process resolves one message through the conversation's cache and
// records acceleration metrics. It returns the processing result and
// the conversation ID actually used (generated when id was empty).
func (m *Manager) Process(ctx context.Context, conversationID string, sig uint32, produce func() (string, []metadata.Entry)) (ProcessingResult, string) {
	ctx, span := m.tracer.Start(ctx, "accel.process",
		trace.WithAttributes(attribute.Int64("signature", int64(sig))),
	)
	defer span.End()

	c := m.Conversation(conversationID)
	res := c.ProcessMessage(sig, produce)

	outcome := "miss"
	if res.CacheHit {
		outcome = "hit"
	}
	attrs := metric.WithAttributes(attribute.String("result", outcome))
	m.lookupCounter.Add(ctx, 1, attrs)
	m.processDuration.Record(ctx, res.ProcessingTime.Seconds(), attrs)
	m.speedupHist.Record(ctx, c.Speedup(res.ProcessingTime), attrs)

	span.SetAttributes(
		attribute.String("conversation_id", c.ID()),
		attribute.Bool("cache_hit", res.CacheHit),
	)

	return res, c.ID()
}

// End closes a conversation: its pattern usage is absorbed into the
// platform aggregate and its accelerator is discarded. The final stats
// are returned; ok is false when the conversation is unknown.
func (m *Manager) End(ctx context.Context, id string) (ConversationStats, bool) {
	_, span := m.tracer.Start(ctx, "accel.end_conversation",
		trace.WithAttributes(attribute.String("conversation_id", id)),
	)
	defer span.End()

	m.mu.Lock()
	c, ok := m.conversations[id]
	if ok {
		delete(m.conversations, id)
	}
	m.mu.Unlock()

	if !ok {
		return ConversationStats{}, false
	}

	stats := c.Stats()
	m.platform.Absorb(c)
	m.activeConversations.Add(ctx, -1)

	m.logger.Debug("conversation ended",
		zap.String("conversation_id", id),
		zap.Int("messages", stats.MessageCount),
		zap.Float64("hit_rate", stats.Cache.HitRate),
		zap.String("type", string(stats.Type)))

	return stats, true
}

// ConversationStats returns the live stats for one conversation.
func (m *Manager) ConversationStats(id string) (ConversationStats, bool) {
	m.mu.Lock()
	c, ok := m.conversations[id]
	m.mu.Unlock()

	if !ok {
		return ConversationStats{}, false
	}
	return c.Stats(), true
}

// Platform exposes the platform aggregate for event-driven feeds.
func (m *Manager) Platform() *Platform {
	return m.platform
}

// Stats aggregates counters across all live conversations plus the
// platform view.
func (m *Manager) Stats() ManagerStats {
	m.mu.Lock()
	live := make([]*Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		live = append(live, c)
	}
	m.mu.Unlock()

	stats := ManagerStats{
		ActiveConversations: len(live),
		Platform:            m.platform.Stats(),
	}
	for _, c := range live {
		cs := c.Cache().Stats()
		stats.Messages += c.MessageCount()
		stats.Hits += cs.Hits
		stats.Misses += cs.Misses
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// initMetrics initializes OpenTelemetry metrics
func (m *Manager) initMetrics() error {
	var err error

	m.lookupCounter, err = m.meter.Int64Counter(
		"accel.lookups_total",
		metric.WithDescription("Pattern cache lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create lookup counter: %w", err)
	}

	m.processDuration, err = m.meter.Float64Histogram(
		"accel.process.duration_seconds",
		metric.WithDescription("Per-message processing time"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.000001, 0.00001, 0.0001, 0.001, 0.005, 0.013, 0.05, 0.1),
	)
	if err != nil {
		return fmt.Errorf("failed to create process duration histogram: %w", err)
	}

	m.speedupHist, err = m.meter.Float64Histogram(
		"accel.speedup",
		metric.WithDescription("Speedup factor versus the uncached baseline"),
		metric.WithUnit("1"),
		metric.WithExplicitBucketBoundaries(0.5, 1.0, 2.0, 5.0, 10.0, 50.0, 100.0, 500.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create speedup histogram: %w", err)
	}

	m.activeConversations, err = m.meter.Int64UpDownCounter(
		"accel.conversations_active",
		metric.WithDescription("Currently tracked conversations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active conversations counter: %w", err)
	}

	return nil
}
