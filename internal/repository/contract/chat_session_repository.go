package contract

import (
	"context"
)

// ChatSessionRepository keeps the session identifier of a profile between runs.
type ChatSessionRepository interface {
	Load(ctx context.Context, profile string) (string, bool, error)
	Save(ctx context.Context, profile string, sessionId string) error
}

// MemoryDocumentRepository caches the mirrored memory documents by target.
type MemoryDocumentRepository interface {
	Save(target string, content string)
	Get(target string) (string, bool)
	Clear()
}
