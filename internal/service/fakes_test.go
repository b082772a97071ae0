package service

import (
	"context"
	"io"
	"sync"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/pkg/events"
)

type fakeAPI struct {
	mu sync.Mutex

	documents []dto.DocumentResponse
	listErr   error
	uploadFn  func(filename string, body []byte) (*dto.UploadDocumentResponse, error)
	deleteErr error
	chatFn    func(ctx context.Context, req dto.SendChatRequest) (*dto.SendChatResponse, error)
	memory    map[string]string
	memoryErr error
	resetErr  error
	// resetGate holds Reset until it is closed.
	resetGate chan struct{}

	calls        map[string]int
	chatRequests []dto.SendChatRequest
	uploads      map[string][]byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		memory:  map[string]string{},
		calls:   map[string]int{},
		uploads: map[string][]byte{},
	}
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeAPI) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) Ping(ctx context.Context) (string, error) {
	f.record("ping")
	return "Agent Service is running", nil
}

func (f *fakeAPI) ListDocuments(ctx context.Context) ([]dto.DocumentResponse, error) {
	f.record("list")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]dto.DocumentResponse, len(f.documents))
	copy(out, f.documents)
	return out, nil
}

func (f *fakeAPI) UploadDocument(ctx context.Context, filename string, content io.Reader) (*dto.UploadDocumentResponse, error) {
	f.record("upload")
	body, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploads[filename] = body
	fn := f.uploadFn
	f.mu.Unlock()

	if fn == nil {
		return &dto.UploadDocumentResponse{Id: filename, Filename: filename, Chunks: 1, Status: "indexed"}, nil
	}
	return fn(filename, body)
}

func (f *fakeAPI) DeleteDocument(ctx context.Context, id string) error {
	f.record("delete")
	return f.deleteErr
}

func (f *fakeAPI) SendChat(ctx context.Context, request dto.SendChatRequest) (*dto.SendChatResponse, error) {
	f.record("chat")
	f.mu.Lock()
	f.chatRequests = append(f.chatRequests, request)
	fn := f.chatFn
	f.mu.Unlock()

	if fn == nil {
		return &dto.SendChatResponse{Response: "ok"}, nil
	}
	return fn(ctx, request)
}

func (f *fakeAPI) GetMemory(ctx context.Context, target string) (*dto.MemoryDocumentResponse, error) {
	f.record("memory:" + target)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.memoryErr != nil {
		return nil, f.memoryErr
	}
	return &dto.MemoryDocumentResponse{Type: target, Content: f.memory[target]}, nil
}

func (f *fakeAPI) Reset(ctx context.Context) error {
	f.record("reset")
	if f.resetGate != nil {
		<-f.resetGate
	}
	return f.resetErr
}

type notification struct {
	level   NotificationLevel
	message string
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []notification
}

func (n *recordingNotifier) Success(_ context.Context, message string) {
	n.add(NotificationSuccess, message)
}

func (n *recordingNotifier) Error(_ context.Context, message string) {
	n.add(NotificationError, message)
}

func (n *recordingNotifier) add(level NotificationLevel, message string) {
	n.mu.Lock()
	n.entries = append(n.entries, notification{level: level, message: message})
	n.mu.Unlock()
}

func (n *recordingNotifier) All() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.entries...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *recordingPublisher) OfType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []events.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
