package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	api       *fakeAPI
	feed      IMemoryFeedService
	publisher *recordingPublisher
	chat      IChatService
}

func newChatFixture() *chatFixture {
	api := newFakeAPI()
	publisher := &recordingPublisher{}
	log := logger.NewNopLogger()
	feed := NewMemoryFeedService(publisher, log)
	return &chatFixture{
		api:       api,
		feed:      feed,
		publisher: publisher,
		chat:      NewChatService(api, feed, publisher, log),
	}
}

func TestSendMessage_BlankInputIsIgnored(t *testing.T) {
	f := newChatFixture()

	for _, text := range []string{"", "   ", "\n\t"} {
		reply, err := f.chat.SendMessage(context.Background(), text, "s1")
		assert.ErrorIs(t, err, ErrEmptyMessage)
		assert.Nil(t, reply)
	}

	assert.Empty(t, f.chat.Messages())
	assert.Equal(t, entity.ChatStateIdle, f.chat.State())
	assert.Equal(t, 0, f.api.Calls("chat"))
}

func TestSendMessage_RequestCarriesTrimmedTextAndSession(t *testing.T) {
	f := newChatFixture()

	_, err := f.chat.SendMessage(context.Background(), "  hello there \n", "session-42")
	require.NoError(t, err)

	require.Len(t, f.api.chatRequests, 1)
	assert.Equal(t, dto.SendChatRequest{Message: "hello there", SessionId: "session-42"}, f.api.chatRequests[0])

	messages := f.chat.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, entity.ChatRoleUser, messages[0].Role)
	assert.Equal(t, "hello there", messages[0].Content)
}

func TestSendMessage_AbsentSequencesBecomeEmpty(t *testing.T) {
	f := newChatFixture()
	f.api.chatFn = func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
		return &dto.SendChatResponse{Response: "Hi!"}, nil
	}

	reply, err := f.chat.SendMessage(context.Background(), "hello", "s1")
	require.NoError(t, err)

	assert.Equal(t, entity.ChatRoleAgent, reply.Role)
	assert.Equal(t, "Hi!", reply.Content)
	assert.NotNil(t, reply.Citations)
	assert.Empty(t, reply.Citations)
	assert.NotNil(t, reply.Thoughts)
	assert.Empty(t, reply.Thoughts)
	assert.NotNil(t, reply.MemoryUpdates)
	assert.Empty(t, reply.MemoryUpdates)
	assert.False(t, reply.Fallback)
	assert.Equal(t, 0, f.feed.Count())
	assert.Empty(t, f.publisher.OfType(events.MemoryFeedChanged))
}

func TestSendMessage_WeatherTurnFeedsMemory(t *testing.T) {
	f := newChatFixture()
	f.api.chatFn = func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
		return &dto.SendChatResponse{
			Response: "It is 18°C and cloudy in Tokyo.",
			Thoughts: []dto.ThoughtStepDTO{
				{Step: "Weather lookup", Detail: "Tokyo"},
			},
			MemoryUpdates: []dto.MemoryUpdateDTO{
				{Id: "m1", Target: "user", Fact: "Interested in Tokyo weather", Timestamp: "2024-05-01T10:00:00"},
			},
		}, nil
	}

	reply, err := f.chat.SendMessage(context.Background(), "Weather in Tokyo today", "s1")
	require.NoError(t, err)

	assert.Equal(t, []entity.ThoughtStep{{Step: "Weather lookup", Detail: "Tokyo"}}, reply.Thoughts)
	require.Len(t, reply.MemoryUpdates, 1)

	entries := f.feed.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "m1", entries[0].Id)
	assert.Equal(t, entity.MemoryTargetUser, entries[0].Target)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), entries[0].Timestamp)
	assert.Len(t, f.publisher.OfType(events.MemoryFeedChanged), 1)

	completed := f.publisher.OfType(events.ChatTurnCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, false, completed[0].Payload()["fallback"])
}

func TestSendMessage_FailureAppendsFallback(t *testing.T) {
	tests := []struct {
		name string
		fn   func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error)
	}{
		{
			name: "transport error",
			fn: func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "memory update with unknown target",
			fn: func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
				return &dto.SendChatResponse{
					Response:      "noted",
					MemoryUpdates: []dto.MemoryUpdateDTO{{Target: "team", Fact: "x"}},
				}, nil
			},
		},
		{
			name: "memory update without fact",
			fn: func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
				return &dto.SendChatResponse{
					Response:      "noted",
					MemoryUpdates: []dto.MemoryUpdateDTO{{Target: "company"}},
				}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newChatFixture()
			f.api.chatFn = tt.fn

			reply, err := f.chat.SendMessage(context.Background(), "Weather in Tokyo today", "s1")
			require.NoError(t, err)

			assert.True(t, reply.Fallback)
			assert.Equal(t, "Something went wrong. Please try again.", reply.Content)
			assert.Empty(t, reply.Citations)
			assert.Empty(t, reply.Thoughts)
			assert.Empty(t, reply.MemoryUpdates)

			assert.Len(t, f.chat.Messages(), 2)
			assert.Equal(t, entity.ChatStateIdle, f.chat.State())
			assert.Equal(t, 0, f.feed.Count())
			assert.Empty(t, f.publisher.OfType(events.MemoryFeedChanged))
		})
	}
}

func TestSendMessage_RejectedWhileSending(t *testing.T) {
	f := newChatFixture()
	release := make(chan struct{})
	f.api.chatFn = func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
		<-release
		return &dto.SendChatResponse{Response: "done"}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.chat.SendMessage(context.Background(), "first", "s1")
		done <- err
	}()

	require.Eventually(t, func() bool { return f.chat.State() == entity.ChatStateSending }, time.Second, time.Millisecond)

	reply, err := f.chat.SendMessage(context.Background(), "second", "s1")
	assert.ErrorIs(t, err, ErrTurnInFlight)
	assert.Nil(t, reply)
	assert.Len(t, f.chat.Messages(), 1)

	close(release)
	require.NoError(t, <-done)

	messages := f.chat.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "done", messages[1].Content)
	assert.Equal(t, 1, f.api.Calls("chat"))
	assert.Equal(t, entity.ChatStateIdle, f.chat.State())
}

func TestReset_DiscardsReplyOfOutstandingTurn(t *testing.T) {
	f := newChatFixture()
	release := make(chan struct{})
	f.api.chatFn = func(context.Context, dto.SendChatRequest) (*dto.SendChatResponse, error) {
		<-release
		return &dto.SendChatResponse{
			Response:      "late",
			MemoryUpdates: []dto.MemoryUpdateDTO{{Target: "user", Fact: "stale"}},
		}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.chat.SendMessage(context.Background(), "hello", "s1")
		done <- err
	}()
	require.Eventually(t, func() bool { return f.chat.State() == entity.ChatStateSending }, time.Second, time.Millisecond)

	f.chat.Reset()
	assert.Empty(t, f.chat.Messages())
	assert.Equal(t, entity.ChatStateSending, f.chat.State())

	close(release)
	assert.ErrorIs(t, <-done, ErrTurnDiscarded)

	assert.Empty(t, f.chat.Messages())
	assert.Equal(t, entity.ChatStateIdle, f.chat.State())
	assert.Equal(t, 0, f.feed.Count())
}

func TestMessageIdsAreUnique(t *testing.T) {
	f := newChatFixture()

	for i := 0; i < 5; i++ {
		_, err := f.chat.SendMessage(context.Background(), "ping", "s1")
		require.NoError(t, err)
	}

	seen := map[string]bool{}
	for _, m := range f.chat.Messages() {
		id := m.Id.String()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 10)
}
