package service

import (
	"context"
	"time"

	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventSink receives bridged events, e.g. a NATS JetStream publisher.
type EventSink interface {
	Publish(ctx context.Context, event events.Event) error
}

// IEventBridgeService forwards every bus event to an external sink so other
// processes can follow the session.
type IEventBridgeService interface {
	Consume(ctx context.Context) error
}

const (
	bridgeBufferSize     = 256
	bridgePublishTimeout = 3 * time.Second
)

type eventBridgeService struct {
	subscriber message.Subscriber
	topicName  string
	sink       EventSink
	logger     logger.ILogger

	bufferSize     int
	publishTimeout time.Duration
}

func NewEventBridgeService(subscriber message.Subscriber, topicName string, sink EventSink, log logger.ILogger) IEventBridgeService {
	return &eventBridgeService{
		subscriber:     subscriber,
		topicName:      topicName,
		sink:           sink,
		logger:         log,
		bufferSize:     bridgeBufferSize,
		publishTimeout: bridgePublishTimeout,
	}
}

// Consume acks every bus message at once and forwards from a bounded queue,
// so a slow sink never holds up a publisher. Events that find the queue full
// are dropped.
func (bs *eventBridgeService) Consume(ctx context.Context) error {
	messages, err := bs.subscriber.Subscribe(ctx, bs.topicName)
	if err != nil {
		return err
	}

	queue := make(chan events.Event, bs.bufferSize)

	go func() {
		defer close(queue)
		for msg := range messages {
			bs.enqueue(msg, queue)
		}
	}()

	go func() {
		for event := range queue {
			bs.forward(ctx, event)
		}
	}()

	return nil
}

func (bs *eventBridgeService) enqueue(msg *message.Message, queue chan<- events.Event) {
	msg.Ack()

	event, err := DecodeEvent(msg)
	if err != nil {
		bs.logger.Error("BRIDGE", "Dropped undecodable event", map[string]interface{}{"error": err.Error()})
		return
	}

	select {
	case queue <- event:
	default:
		bs.logger.Warn("BRIDGE", "Bridge queue full, dropped event", map[string]interface{}{"type": event.EventType()})
	}
}

func (bs *eventBridgeService) forward(ctx context.Context, event events.Event) {
	publishCtx, cancel := context.WithTimeout(ctx, bs.publishTimeout)
	defer cancel()

	if err := bs.sink.Publish(publishCtx, event); err != nil {
		bs.logger.Warn("BRIDGE", "Failed to forward event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return
	}
	bs.logger.Debug("BRIDGE", "Event forwarded", map[string]interface{}{"type": event.EventType()})
}
