package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bridgeTopic = "assistant.events"

type recordingSink struct {
	mu     sync.Mutex
	types  []string
	errs   []error
	failOn map[string]error
	// gate holds every Publish until it is closed.
	gate chan struct{}
	// waitCtx makes Publish block until its context ends.
	waitCtx bool
}

func (s *recordingSink) Publish(ctx context.Context, event events.Event) error {
	if s.gate != nil {
		<-s.gate
	}
	var err error
	if s.waitCtx {
		<-ctx.Done()
		err = ctx.Err()
	}
	if fail, ok := s.failOn[event.EventType()]; ok && err == nil {
		err = fail
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, event.EventType())
	s.errs = append(s.errs, err)
	return err
}

func (s *recordingSink) forwarded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.types...)
}

func (s *recordingSink) results() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

type bridgeHarness struct {
	pubSub    *gochannel.GoChannel
	publisher IPublisherService
	log       *logger.ZapLogger
}

// startBridge runs a bridge over a bus that blocks publishers until every
// subscriber acks, as the container builds it.
func startBridge(t *testing.T, sink EventSink, tune func(*eventBridgeService)) bridgeHarness {
	t.Helper()

	log := logger.NewIsolatedLogger(filepath.Join(t.TempDir(), "bridge.log"), true)
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	bridge := NewEventBridgeService(pubSub, bridgeTopic, sink, log).(*eventBridgeService)
	if tune != nil {
		tune(bridge)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, bridge.Consume(ctx))

	return bridgeHarness{
		pubSub:    pubSub,
		publisher: NewPublisherService(bridgeTopic, pubSub, log),
		log:       log,
	}
}

func (h bridgeHarness) logged(t *testing.T, level string) []string {
	t.Helper()
	require.NoError(t, h.log.Sync())
	entries, err := h.log.GetLogs(logger.LogQuery{Level: level, Module: "BRIDGE"})
	require.NoError(t, err)
	messages := make([]string, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, e.Message)
	}
	return messages
}

func TestEventBridge_ForwardsEventsInOrder(t *testing.T) {
	sink := &recordingSink{}
	h := startBridge(t, sink, nil)
	ctx := context.Background()

	h.publisher.Publish(ctx, events.New(events.DocumentIngested, map[string]interface{}{"filename": "notes.txt"}))
	h.publisher.Publish(ctx, events.New(events.ChatTurnCompleted, nil))

	assert.Eventually(t, func() bool {
		return len(sink.forwarded()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{events.DocumentIngested, events.ChatTurnCompleted}, sink.forwarded())
}

func TestEventBridge_SlowSinkDoesNotBlockPublishers(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	h := startBridge(t, sink, nil)
	feed := NewMemoryFeedService(h.publisher, logger.NewNopLogger())
	ctx := context.Background()

	start := time.Now()
	feed.Ingest(ctx, []entity.MemoryFact{{Id: "f1", Target: entity.MemoryTargetUser, Fact: "likes tea"}})
	feed.Clear(ctx)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Empty(t, sink.forwarded())

	close(sink.gate)
	assert.Eventually(t, func() bool {
		return len(sink.forwarded()) == 2
	}, time.Second, 5*time.Millisecond)
}

func TestEventBridge_DropsUndecodableMessages(t *testing.T) {
	sink := &recordingSink{}
	h := startBridge(t, sink, nil)

	require.NoError(t, h.pubSub.Publish(bridgeTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	h.publisher.Publish(context.Background(), events.New(events.SessionReset, nil))

	assert.Eventually(t, func() bool {
		return len(sink.forwarded()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{events.SessionReset}, sink.forwarded())
	assert.Contains(t, h.logged(t, "error"), "Dropped undecodable event")
}

func TestEventBridge_SinkFailureIsLoggedAndForwardingContinues(t *testing.T) {
	sink := &recordingSink{failOn: map[string]error{events.Notification: errors.New("nats: no responders")}}
	h := startBridge(t, sink, nil)
	ctx := context.Background()

	h.publisher.Publish(ctx, events.New(events.Notification, map[string]interface{}{"message": "hi"}))
	h.publisher.Publish(ctx, events.New(events.CatalogRefreshed, nil))

	assert.Eventually(t, func() bool {
		return len(sink.forwarded()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{events.Notification, events.CatalogRefreshed}, sink.forwarded())
	assert.Contains(t, h.logged(t, "warn"), "Failed to forward event")
}

func TestEventBridge_FullQueueDropsEvents(t *testing.T) {
	sink := &recordingSink{gate: make(chan struct{})}
	h := startBridge(t, sink, func(bs *eventBridgeService) { bs.bufferSize = 1 })
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		h.publisher.Publish(ctx, events.New(events.UploadProgress, map[string]interface{}{"percent": i}))
	}
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	close(sink.gate)
	// At most one event in the sink and one in the queue survive.
	assert.Eventually(t, func() bool {
		return len(sink.forwarded()) >= 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, len(sink.forwarded()), 2)
	assert.Contains(t, h.logged(t, "warn"), "Bridge queue full, dropped event")
}

func TestEventBridge_PublishIsBoundedByTimeout(t *testing.T) {
	sink := &recordingSink{waitCtx: true}
	h := startBridge(t, sink, func(bs *eventBridgeService) { bs.publishTimeout = 20 * time.Millisecond })

	h.publisher.Publish(context.Background(), events.New(events.SessionReset, nil))

	assert.Eventually(t, func() bool {
		return len(sink.results()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, sink.results()[0], context.DeadlineExceeded)
}
