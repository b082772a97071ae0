package assistant

import (
	"context"
	"io"

	"ai-knowledge-client/internal/dto"
)

// API is the remote agent service boundary. Retrieval, generation, memory
// extraction and persistence all happen behind it.
type API interface {
	// Ping returns the service banner.
	Ping(ctx context.Context) (string, error)

	ListDocuments(ctx context.Context) ([]dto.DocumentResponse, error)

	// UploadDocument sends the raw file as multipart field "file".
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*dto.UploadDocumentResponse, error)

	DeleteDocument(ctx context.Context, id string) error

	// SendChat executes one chat turn scoped by request.SessionId.
	SendChat(ctx context.Context, request dto.SendChatRequest) (*dto.SendChatResponse, error)

	// GetMemory fetches one of the long-lived memory documents ("user" or "company").
	GetMemory(ctx context.Context, target string) (*dto.MemoryDocumentResponse, error)

	// Reset wipes every document, memory and conversation on the service.
	Reset(ctx context.Context) error
}
