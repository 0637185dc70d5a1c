package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/aurad/internal/accel"
)

// startTestNATSServer starts an embedded NATS server for testing.
func startTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()

	opts := &natsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1, // Random port
		NoLog:  true,
		NoSigs: true,
	}

	server, err := natsserver.NewServer(opts)
	require.NoError(t, err)

	go server.Start()

	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}

	t.Cleanup(func() {
		server.Shutdown()
		server.WaitForShutdown()
	})

	return server
}

func connect(t *testing.T, server *natsserver.Server) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestPublisher_PatternUsed(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(SubjectPatternUsed, ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	pub := NewPublisher(nc, nil)
	require.True(t, pub.Enabled())

	err = pub.PatternUsed(context.Background(), PatternUsedEvent{
		Signature:        0x00070000,
		Kind:             "template",
		ConversationType: "qa",
	})
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var event PatternUsedEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, uint32(0x00070000), event.Signature)
		assert.Equal(t, "template", event.Kind)
		assert.Equal(t, "qa", event.ConversationType)
		assert.Equal(t, uint64(1), event.Count)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for pattern usage event")
	}
}

func TestPublisher_TemplateDiscovered(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.ChanSubscribe(SubjectTemplateDiscovered, ch)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	pub := NewPublisher(nc, nil)
	err = pub.TemplateDiscovered(context.Background(), 149, "your order {0} has shipped", 4)
	require.NoError(t, err)

	select {
	case msg := <-ch:
		var event TemplateDiscoveredEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))
		assert.Equal(t, uint16(149), event.TemplateID)
		assert.Equal(t, "your order {0} has shipped", event.Pattern)
		assert.Equal(t, 4, event.Support)
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for template discovery event")
	}
}

func TestPublisher_NilConnectionIsNoOp(t *testing.T) {
	pub := NewPublisher(nil, nil)

	assert.False(t, pub.Enabled())
	assert.NoError(t, pub.PatternUsed(context.Background(), PatternUsedEvent{Signature: 1}))
	assert.NoError(t, pub.TemplateDiscovered(context.Background(), 149, "x {0} y", 2))
}

func TestNewAggregator_Validation(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)
	platform := accel.NewPlatform(accel.PlatformConfig{})

	_, err := NewAggregator(nil, platform, nil)
	assert.Error(t, err)

	_, err = NewAggregator(nc, nil, nil)
	assert.Error(t, err)

	agg, err := NewAggregator(nc, platform, nil)
	require.NoError(t, err)
	assert.NotNil(t, agg)
}

func TestAggregator_RecordsUsage(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	platform := accel.NewPlatform(accel.PlatformConfig{})
	agg, err := NewAggregator(nc, platform, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, agg.Start(ctx))
	t.Cleanup(func() { _ = agg.Drain() })

	pub := NewPublisher(nc, nil)
	require.NoError(t, pub.PatternUsed(ctx, PatternUsedEvent{Signature: 100}))
	require.NoError(t, pub.PatternUsed(ctx, PatternUsedEvent{Signature: 100, Count: 2}))
	require.NoError(t, pub.PatternUsed(ctx, PatternUsedEvent{Signature: 200}))

	require.Eventually(t, func() bool {
		top := platform.TopPatterns(2)
		return len(top) == 2 && top[0].Signature == 100 && top[0].Count == 3 && top[1].Count == 1
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAggregator_DropsMalformedEvents(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	platform := accel.NewPlatform(accel.PlatformConfig{})
	agg, err := NewAggregator(nc, platform, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, agg.Start(ctx))

	require.NoError(t, nc.Publish(SubjectPatternUsed, []byte("{not json")))
	require.NoError(t, nc.Publish(SubjectPatternUsed, mustMarshal(t, PatternUsedEvent{Signature: 7})))

	require.Eventually(t, func() bool {
		top := platform.TopPatterns(10)
		return len(top) == 1 && top[0].Signature == 7
	}, 5*time.Second, 20*time.Millisecond)
}

func TestAggregator_StartTwice(t *testing.T) {
	server := startTestNATSServer(t)
	nc := connect(t, server)

	platform := accel.NewPlatform(accel.PlatformConfig{})
	agg, err := NewAggregator(nc, platform, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	require.NoError(t, agg.Start(ctx))
	assert.Error(t, agg.Start(ctx))

	require.NoError(t, agg.Drain())
	require.NoError(t, agg.Drain())
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
