package service

import (
	"context"
	"fmt"

	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// IPublisherService puts client events on the in-process bus.
type IPublisherService interface {
	Publish(ctx context.Context, event events.Event)
}

type publisherService struct {
	topicName string
	publisher message.Publisher
	logger    logger.ILogger
}

func NewPublisherService(topicName string, publisher message.Publisher, log logger.ILogger) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
		logger:    log,
	}
}

// Publish never fails the caller; a lost event only costs an observer update.
func (ps *publisherService) Publish(ctx context.Context, event events.Event) {
	payload, err := events.Marshal(event)
	if err != nil {
		ps.logger.Error("EVENTS", "Failed to marshal event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(events.MetadataType, event.EventType())
	msg.SetContext(ctx)

	if err := ps.publisher.Publish(ps.topicName, msg); err != nil {
		ps.logger.Error("EVENTS", "Failed to publish event", map[string]interface{}{"type": event.EventType(), "error": err.Error()})
		return
	}
	ps.logger.Debug("EVENTS", "Event published", map[string]interface{}{"type": event.EventType()})
}

// DecodeEvent turns a bus message back into an event.
func DecodeEvent(msg *message.Message) (events.BaseEvent, error) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		return events.BaseEvent{}, fmt.Errorf("unmarshal event %s: %w", msg.UUID, err)
	}
	return event, nil
}

// noopPublisher is used when a component is built without a bus.
type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, events.Event) {}
