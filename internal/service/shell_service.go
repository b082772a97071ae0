package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"ai-knowledge-client/internal/constant"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/repository/contract"
	"ai-knowledge-client/pkg/assistant"
	"ai-knowledge-client/pkg/events"

	"github.com/google/uuid"
)

var ErrResetInFlight = errors.New("a reset is already in progress")

// IShellService owns the session identifier and the global reset.
type IShellService interface {
	SessionID() string
	Badges() entity.Badges
	Send(ctx context.Context, text string) (*entity.ChatMessage, error)
	Reset(ctx context.Context) error
	Status(ctx context.Context) (string, error)
}

type shellService struct {
	api        assistant.API
	catalog    ICatalogService
	chat       IChatService
	memoryFeed IMemoryFeedService
	mirror     IMemoryMirrorService
	sessions   contract.ChatSessionRepository
	profile    string
	publisher  IPublisherService
	notifier   INotificationService
	logger     logger.ILogger

	mu        sync.RWMutex
	sessionId string
	resetting atomic.Bool
}

// NewShellService resumes the profile's stored session or starts a new one.
// mirror may be nil.
func NewShellService(
	ctx context.Context,
	api assistant.API,
	catalog ICatalogService,
	chat IChatService,
	memoryFeed IMemoryFeedService,
	mirror IMemoryMirrorService,
	sessions contract.ChatSessionRepository,
	profile string,
	publisher IPublisherService,
	notifier INotificationService,
	log logger.ILogger,
) (IShellService, error) {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	ss := &shellService{
		api:        api,
		catalog:    catalog,
		chat:       chat,
		memoryFeed: memoryFeed,
		mirror:     mirror,
		sessions:   sessions,
		profile:    profile,
		publisher:  publisher,
		notifier:   notifier,
		logger:     log,
	}

	sessionId, found, err := sessions.Load(ctx, profile)
	if err != nil {
		return nil, err
	}
	if !found {
		sessionId = uuid.New().String()
		if err := sessions.Save(ctx, profile, sessionId); err != nil {
			return nil, err
		}
		log.Info("SHELL", "Started new session", map[string]interface{}{"profile": profile, "session_id": sessionId})
	} else {
		log.Info("SHELL", "Resumed session", map[string]interface{}{"profile": profile, "session_id": sessionId})
	}
	ss.sessionId = sessionId

	return ss, nil
}

func (ss *shellService) SessionID() string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.sessionId
}

func (ss *shellService) Badges() entity.Badges {
	return entity.Badges{
		Documents: ss.catalog.Count(),
		Memories:  ss.memoryFeed.Count(),
	}
}

func (ss *shellService) Send(ctx context.Context, text string) (*entity.ChatMessage, error) {
	return ss.chat.SendMessage(ctx, text, ss.SessionID())
}

// Reset wipes the remote service first and only then the local state. A call
// made while another reset is outstanding returns ErrResetInFlight and issues
// no request.
func (ss *shellService) Reset(ctx context.Context) error {
	if !ss.resetting.CompareAndSwap(false, true) {
		return ErrResetInFlight
	}
	defer ss.resetting.Store(false)

	if err := ss.api.Reset(ctx); err != nil {
		ss.logger.Error("SHELL", "Reset failed", map[string]interface{}{"error": err.Error()})
		ss.notifier.Error(ctx, constant.NotifyResetFailed)
		return fmt.Errorf("reset: %w", err)
	}

	ss.catalog.Clear()
	ss.memoryFeed.Clear(ctx)
	if ss.mirror != nil {
		ss.mirror.Clear()
	}

	sessionId := uuid.New().String()
	ss.mu.Lock()
	previous := ss.sessionId
	ss.sessionId = sessionId
	ss.mu.Unlock()

	if err := ss.sessions.Save(ctx, ss.profile, sessionId); err != nil {
		// The new session is still used for this process.
		ss.logger.Warn("SHELL", "Failed to persist session", map[string]interface{}{"error": err.Error()})
	}

	ss.chat.Reset()

	ss.logger.Info("SHELL", "All data cleared", map[string]interface{}{
		"previous_session_id": previous,
		"session_id":          sessionId,
	})
	ss.publisher.Publish(ctx, events.New(events.SessionReset, map[string]interface{}{"session_id": sessionId}))
	ss.notifier.Success(ctx, constant.NotifyResetDone)
	return nil
}

// Status returns the service banner; an error means the agent is offline.
func (ss *shellService) Status(ctx context.Context) (string, error) {
	return ss.api.Ping(ctx)
}
