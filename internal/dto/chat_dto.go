package dto

type SendChatRequest struct {
	Message   string `json:"message" validate:"required"`
	SessionId string `json:"session_id" validate:"required"`
}

// SendChatResponse omits optional sequences when the service does; absent and empty are equivalent.
type SendChatResponse struct {
	Response      string            `json:"response"`
	Citations     []CitationDTO     `json:"citations,omitempty"`
	Thoughts      []ThoughtStepDTO  `json:"thoughts,omitempty"`
	MemoryUpdates []MemoryUpdateDTO `json:"memory_updates,omitempty" validate:"dive"`
}

type CitationDTO struct {
	Source string `json:"source"`
	Page   int    `json:"page"`
	Chunk  string `json:"chunk"`
}

type ThoughtStepDTO struct {
	Step   string `json:"step"`
	Detail string `json:"detail"`
}

type MemoryUpdateDTO struct {
	Id        string `json:"id,omitempty"`
	Target    string `json:"target" validate:"oneof=user company"`
	Fact      string `json:"fact" validate:"required"`
	Timestamp string `json:"timestamp,omitempty"`
}
