package mapper

import (
	"time"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/entity"

	"github.com/google/uuid"
)

type ChatMapper struct {
	now func() time.Time
}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{now: time.Now}
}

// UserMessage builds the user side of a turn.
func (m *ChatMapper) UserMessage(text string) entity.ChatMessage {
	return entity.ChatMessage{
		Id:            uuid.New(),
		Role:          entity.ChatRoleUser,
		Content:       text,
		Citations:     []entity.Citation{},
		Thoughts:      []entity.ThoughtStep{},
		MemoryUpdates: []entity.MemoryFact{},
		CreatedAt:     m.now(),
	}
}

// AgentMessage converts a chat response; absent sequences become empty ones.
func (m *ChatMapper) AgentMessage(res *dto.SendChatResponse) entity.ChatMessage {
	citations := make([]entity.Citation, 0, len(res.Citations))
	for _, c := range res.Citations {
		citations = append(citations, entity.Citation{
			Source: c.Source,
			Page:   c.Page,
			Chunk:  c.Chunk,
		})
	}

	thoughts := make([]entity.ThoughtStep, 0, len(res.Thoughts))
	for _, t := range res.Thoughts {
		thoughts = append(thoughts, entity.ThoughtStep{Step: t.Step, Detail: t.Detail})
	}

	return entity.ChatMessage{
		Id:            uuid.New(),
		Role:          entity.ChatRoleAgent,
		Content:       res.Response,
		Citations:     citations,
		Thoughts:      thoughts,
		MemoryUpdates: m.MemoryFacts(res.MemoryUpdates),
		CreatedAt:     m.now(),
	}
}

// FallbackMessage is appended in place of a reply when a turn fails.
func (m *ChatMapper) FallbackMessage(content string) entity.ChatMessage {
	return entity.ChatMessage{
		Id:            uuid.New(),
		Role:          entity.ChatRoleAgent,
		Content:       content,
		Citations:     []entity.Citation{},
		Thoughts:      []entity.ThoughtStep{},
		MemoryUpdates: []entity.MemoryFact{},
		Fallback:      true,
		CreatedAt:     m.now(),
	}
}

func (m *ChatMapper) MemoryFacts(updates []dto.MemoryUpdateDTO) []entity.MemoryFact {
	facts := make([]entity.MemoryFact, 0, len(updates))
	for _, u := range updates {
		facts = append(facts, entity.MemoryFact{
			Id:        u.Id,
			Target:    entity.MemoryTarget(u.Target),
			Fact:      u.Fact,
			Timestamp: parseTimestamp(u.Timestamp),
		})
	}
	return facts
}

// parseTimestamp accepts RFC3339 with or without fractional seconds and Python's
// naive isoformat. Anything else yields the zero time.
func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
