package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleAgent ChatRole = "agent"
)

type ChatMessage struct {
	Id            uuid.UUID
	Role          ChatRole
	Content       string
	Citations     []Citation
	Thoughts      []ThoughtStep
	MemoryUpdates []MemoryFact
	Fallback      bool
	CreatedAt     time.Time
}

type Citation struct {
	Source string
	Page   int
	Chunk  string
}

// ThoughtStep is one entry of the agent's reasoning trace for a turn.
type ThoughtStep struct {
	Step   string
	Detail string
}

type ChatState int

const (
	ChatStateIdle ChatState = iota
	ChatStateSending
)

func (s ChatState) String() string {
	if s == ChatStateSending {
		return "sending"
	}
	return "idle"
}
