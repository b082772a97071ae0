package service

import (
	"context"

	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/events"
)

type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
)

// INotificationService surfaces a failure or success to the user exactly once.
type INotificationService interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

type notificationService struct {
	publisher IPublisherService
	logger    logger.ILogger
}

func NewNotificationService(publisher IPublisherService, log logger.ILogger) INotificationService {
	return &notificationService{publisher: publisher, logger: log}
}

func (ns *notificationService) Success(ctx context.Context, message string) {
	ns.notify(ctx, NotificationSuccess, message)
}

func (ns *notificationService) Error(ctx context.Context, message string) {
	ns.notify(ctx, NotificationError, message)
}

func (ns *notificationService) notify(ctx context.Context, level NotificationLevel, message string) {
	ns.logger.Info("NOTIFY", message, map[string]interface{}{"level": string(level)})
	ns.publisher.Publish(ctx, events.New(events.Notification, map[string]interface{}{
		"level":   string(level),
		"message": message,
	}))
}
