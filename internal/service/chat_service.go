package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ai-knowledge-client/internal/constant"
	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/mapper"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/assistant"
	"ai-knowledge-client/pkg/events"

	"github.com/go-playground/validator/v10"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrTurnInFlight  = errors.New("a chat turn is already in flight")
	ErrTurnDiscarded = errors.New("chat turn finished after the log was reset")
)

// IChatService runs one chat turn at a time against the agent service.
type IChatService interface {
	SendMessage(ctx context.Context, text string, sessionId string) (*entity.ChatMessage, error)
	Messages() []entity.ChatMessage
	State() entity.ChatState
	Reset()
}

type chatService struct {
	api        assistant.API
	memoryFeed IMemoryFeedService
	publisher  IPublisherService
	logger     logger.ILogger
	mapper     *mapper.ChatMapper
	validate   *validator.Validate

	mu       sync.Mutex
	state    entity.ChatState
	messages []entity.ChatMessage
	// generation changes on Reset so a turn settling afterwards is not
	// appended to the fresh log.
	generation uint64
}

func NewChatService(
	api assistant.API,
	memoryFeed IMemoryFeedService,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &chatService{
		api:        api,
		memoryFeed: memoryFeed,
		publisher:  publisher,
		logger:     log,
		mapper:     mapper.NewChatMapper(),
		validate:   validator.New(),
		state:      entity.ChatStateIdle,
		messages:   []entity.ChatMessage{},
	}
}

// SendMessage appends the user message, awaits the agent and appends its reply.
// Empty input and a send during an outstanding turn are rejected without side
// effects. Transport and payload failures never surface as errors: the reply is
// replaced by a fallback agent message instead.
func (cs *chatService) SendMessage(ctx context.Context, text string, sessionId string) (*entity.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	request := dto.SendChatRequest{Message: text, SessionId: sessionId}
	if err := cs.validate.Struct(request); err != nil {
		return nil, fmt.Errorf("invalid chat request: %w", err)
	}

	cs.mu.Lock()
	if cs.state == entity.ChatStateSending {
		cs.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	cs.messages = append(cs.messages, cs.mapper.UserMessage(text))
	cs.state = entity.ChatStateSending
	generation := cs.generation
	cs.mu.Unlock()

	defer func() {
		cs.mu.Lock()
		cs.state = entity.ChatStateIdle
		cs.mu.Unlock()
	}()

	reply := cs.execute(ctx, request)

	cs.mu.Lock()
	stale := generation != cs.generation
	if !stale {
		cs.messages = append(cs.messages, reply)
	}
	cs.mu.Unlock()

	if stale {
		cs.logger.Warn("CHAT", "Dropped reply for a reset conversation", map[string]interface{}{"session_id": sessionId})
		return &reply, ErrTurnDiscarded
	}

	if len(reply.MemoryUpdates) > 0 {
		cs.memoryFeed.Ingest(ctx, reply.MemoryUpdates)
	}

	cs.publisher.Publish(ctx, events.New(events.ChatTurnCompleted, map[string]interface{}{
		"session_id":     sessionId,
		"fallback":       reply.Fallback,
		"citations":      len(reply.Citations),
		"thoughts":       len(reply.Thoughts),
		"memory_updates": len(reply.MemoryUpdates),
	}))

	return &reply, nil
}

func (cs *chatService) execute(ctx context.Context, request dto.SendChatRequest) entity.ChatMessage {
	res, err := cs.api.SendChat(ctx, request)
	if err == nil {
		if vErr := cs.validate.Struct(res); vErr != nil {
			err = fmt.Errorf("%w: %w", assistant.ErrMalformedResponse, vErr)
		}
	}
	if err != nil {
		cs.logger.Error("CHAT", "Chat turn failed", map[string]interface{}{
			"session_id": request.SessionId,
			"error":      err.Error(),
		})
		return cs.mapper.FallbackMessage(constant.ChatFallbackMessage)
	}

	reply := cs.mapper.AgentMessage(res)
	cs.logger.Info("CHAT", "Chat turn completed", map[string]interface{}{
		"session_id":     request.SessionId,
		"citations":      len(reply.Citations),
		"thoughts":       len(reply.Thoughts),
		"memory_updates": len(reply.MemoryUpdates),
	})
	return reply
}

func (cs *chatService) Messages() []entity.ChatMessage {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make([]entity.ChatMessage, len(cs.messages))
	copy(out, cs.messages)
	return out
}

func (cs *chatService) State() entity.ChatState {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.state
}

// Reset clears the log. An outstanding turn keeps the engine in Sending until it
// settles, so two turns can never overlap; its reply is discarded.
func (cs *chatService) Reset() {
	cs.mu.Lock()
	cs.messages = []entity.ChatMessage{}
	cs.generation++
	cs.mu.Unlock()

	cs.logger.Info("CHAT", "Conversation cleared", nil)
}
