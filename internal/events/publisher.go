package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects for platform-wide pattern eventing.
const (
	// SubjectPatternUsed carries one event per compressed message.
	SubjectPatternUsed = "aura.patterns.used"

	// SubjectTemplateDiscovered announces newly promoted templates.
	SubjectTemplateDiscovered = "aura.templates.discovered"
)

// PatternUsedEvent is the payload published on SubjectPatternUsed.
type PatternUsedEvent struct {
	Signature        uint32    `json:"signature"`
	Kind             string    `json:"kind"`
	ConversationType string    `json:"conversation_type,omitempty"`
	Count            uint64    `json:"count"`
	Timestamp        time.Time `json:"timestamp"`
}

// TemplateDiscoveredEvent is the payload published on
// SubjectTemplateDiscovered.
type TemplateDiscoveredEvent struct {
	TemplateID uint16    `json:"template_id"`
	Pattern    string    `json:"pattern"`
	Support    int       `json:"support"`
	Timestamp  time.Time `json:"timestamp"`
}

// Publisher emits pattern events to NATS. A Publisher with a nil
// connection is valid and publishes nothing, so callers never need to
// special-case deployments without a broker.
type Publisher struct {
	nats   *nats.Conn
	logger *zap.Logger
}

// NewPublisher creates a publisher over the given connection. The
// connection may be nil.
func NewPublisher(nc *nats.Conn, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nats: nc, logger: logger}
}

// Enabled reports whether events will actually reach a broker.
func (p *Publisher) Enabled() bool {
	return p.nats != nil
}

// PatternUsed publishes a pattern-usage event. A zero Count is sent as
// one use; a zero Timestamp is stamped with the current time.
func (p *Publisher) PatternUsed(_ context.Context, event PatternUsedEvent) error {
	if p.nats == nil {
		return nil
	}

	if event.Count == 0 {
		event.Count = 1
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal pattern usage event: %w", err)
	}

	if err := p.nats.Publish(SubjectPatternUsed, data); err != nil {
		return fmt.Errorf("publish pattern usage event: %w", err)
	}
	return nil
}

// TemplateDiscovered publishes a template-discovery announcement. The
// signature matches what the discovery worker expects from its
// publisher.
func (p *Publisher) TemplateDiscovered(_ context.Context, id uint16, pattern string, support int) error {
	if p.nats == nil {
		return nil
	}

	event := TemplateDiscoveredEvent{
		TemplateID: id,
		Pattern:    pattern,
		Support:    support,
		Timestamp:  time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal template discovery event: %w", err)
	}

	if err := p.nats.Publish(SubjectTemplateDiscovered, data); err != nil {
		return fmt.Errorf("publish template discovery event: %w", err)
	}
	return nil
}
