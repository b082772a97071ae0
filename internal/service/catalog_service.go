package service

import (
	"context"
	"sync"

	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/mapper"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/assistant"
	"ai-knowledge-client/pkg/events"
)

// ICatalogService is the client-held, ordered mirror of ingested documents.
// Insert and Remove are provisional; Refresh replaces everything with server truth.
type ICatalogService interface {
	Refresh(ctx context.Context) error
	Insert(doc entity.Document)
	Remove(id string)
	Clear()
	List() []entity.Document
	Count() int
	Find(id string) (entity.Document, bool)
}

type catalogService struct {
	api       assistant.API
	mapper    *mapper.DocumentMapper
	publisher IPublisherService
	logger    logger.ILogger

	mu        sync.RWMutex
	documents []entity.Document
}

func NewCatalogService(api assistant.API, publisher IPublisherService, log logger.ILogger) ICatalogService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &catalogService{
		api:       api,
		mapper:    mapper.NewDocumentMapper(),
		publisher: publisher,
		logger:    log,
		documents: []entity.Document{},
	}
}

// Refresh is last-writer-wins against any optimistic mutation made meanwhile.
func (cs *catalogService) Refresh(ctx context.Context) error {
	docs, err := cs.api.ListDocuments(ctx)
	if err != nil {
		cs.logger.Warn("CATALOG", "Failed to fetch documents", map[string]interface{}{"error": err.Error()})
		return err
	}

	fresh := cs.mapper.ToEntities(docs)

	cs.mu.Lock()
	cs.documents = fresh
	cs.mu.Unlock()

	cs.logger.Debug("CATALOG", "Catalog refreshed", map[string]interface{}{"count": len(fresh)})
	cs.publisher.Publish(ctx, events.New(events.CatalogRefreshed, map[string]interface{}{"count": len(fresh)}))
	return nil
}

func (cs *catalogService) Insert(doc entity.Document) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for i := range cs.documents {
		if cs.documents[i].Id == doc.Id {
			cs.documents[i] = doc
			return
		}
	}
	cs.documents = append(cs.documents, doc)
}

func (cs *catalogService) Remove(id string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	kept := make([]entity.Document, 0, len(cs.documents))
	for _, d := range cs.documents {
		if d.Id != id {
			kept = append(kept, d)
		}
	}
	cs.documents = kept
}

func (cs *catalogService) Clear() {
	cs.mu.Lock()
	cs.documents = []entity.Document{}
	cs.mu.Unlock()
}

func (cs *catalogService) List() []entity.Document {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	out := make([]entity.Document, len(cs.documents))
	copy(out, cs.documents)
	return out
}

func (cs *catalogService) Count() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.documents)
}

func (cs *catalogService) Find(id string) (entity.Document, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	for _, d := range cs.documents {
		if d.Id == id {
			return d, true
		}
	}
	return entity.Document{}, false
}
