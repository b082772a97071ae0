package main

import (
	"context"

	"ai-knowledge-client/internal/bootstrap"
	"ai-knowledge-client/internal/service"
	"ai-knowledge-client/pkg/events"
)

// observe prints notifications and upload progress from the event bus.
func observe(ctx context.Context, c *bootstrap.Container, r *renderer) error {
	messages, err := c.PubSub.Subscribe(ctx, c.Config.Events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := msg.Metadata.Get(events.MetadataType)
			if eventType == events.Notification || eventType == events.UploadProgress {
				event, err := service.DecodeEvent(msg)
				if err == nil {
					render(r, event)
				}
			}
			msg.Ack()
		}
	}()
	return nil
}

func render(r *renderer, event events.Event) {
	payload := event.Payload()
	switch event.EventType() {
	case events.Notification:
		level, _ := payload["level"].(string)
		message, _ := payload["message"].(string)
		r.notification(level, message)
	case events.UploadProgress:
		filename, _ := payload["filename"].(string)
		stage, _ := payload["stage"].(string)
		// JSON numbers decode as float64.
		percent, _ := payload["percent"].(float64)
		r.progress(filename, stage, int(percent))
	}
}
