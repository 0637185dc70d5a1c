package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/accel"
)

// Aggregator feeds platform-wide pattern usage from NATS into the
// local platform accelerator, so every node learns from the whole
// fleet's traffic.
type Aggregator struct {
	nats     *nats.Conn
	platform *accel.Platform
	logger   *zap.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewAggregator creates an aggregator. Both the connection and the
// platform are required; nodes without a broker simply do not run one.
func NewAggregator(nc *nats.Conn, platform *accel.Platform, logger *zap.Logger) (*Aggregator, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection cannot be nil")
	}
	if platform == nil {
		return nil, fmt.Errorf("platform cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{nats: nc, platform: platform, logger: logger}, nil
}

// Start subscribes to pattern-usage events. The subscription drains
// when ctx is cancelled. Calling Start on a running aggregator returns
// an error.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sub != nil {
		return fmt.Errorf("aggregator is already running")
	}

	sub, err := a.nats.Subscribe(SubjectPatternUsed, a.handlePatternUsed)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SubjectPatternUsed, err)
	}
	a.sub = sub

	a.logger.Info("pattern aggregator started",
		zap.String("subject", SubjectPatternUsed))

	go func() {
		<-ctx.Done()
		if err := a.Drain(); err != nil {
			a.logger.Warn("failed to drain aggregator subscription", zap.Error(err))
		}
	}()
	return nil
}

// Drain processes pending messages and removes the subscription.
// Draining an aggregator that is not running is a no-op.
func (a *Aggregator) Drain() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sub == nil {
		return nil
	}

	err := a.sub.Drain()
	a.sub = nil
	if err != nil {
		return fmt.Errorf("drain subscription: %w", err)
	}
	return nil
}

// handlePatternUsed records one usage event. Malformed payloads are
// logged and dropped; a bad peer must not poison local statistics.
func (a *Aggregator) handlePatternUsed(msg *nats.Msg) {
	var event PatternUsedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		a.logger.Warn("dropping malformed pattern usage event", zap.Error(err))
		return
	}

	count := event.Count
	if count == 0 {
		count = 1
	}
	a.platform.RecordUsage(event.Signature, count)
}
