package service

import (
	"context"
	"sync"

	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/pkg/events"
)

// IMemoryFeedService aggregates memory facts surfaced by chat turns, newest batch first.
type IMemoryFeedService interface {
	Ingest(ctx context.Context, facts []entity.MemoryFact)
	Entries() []entity.MemoryFact
	Count() int
	Clear(ctx context.Context)
}

type memoryFeedService struct {
	publisher IPublisherService
	logger    logger.ILogger

	mu      sync.RWMutex
	entries []entity.MemoryFact
}

func NewMemoryFeedService(publisher IPublisherService, log logger.ILogger) IMemoryFeedService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &memoryFeedService{
		publisher: publisher,
		logger:    log,
		entries:   []entity.MemoryFact{},
	}
}

// Ingest prepends the batch in its given order. The feed is never pruned,
// deduplicated or re-sorted by the facts' own timestamps.
func (ms *memoryFeedService) Ingest(ctx context.Context, facts []entity.MemoryFact) {
	if len(facts) == 0 {
		return
	}

	ms.mu.Lock()
	merged := make([]entity.MemoryFact, 0, len(facts)+len(ms.entries))
	merged = append(merged, facts...)
	merged = append(merged, ms.entries...)
	ms.entries = merged
	total := len(merged)
	ms.mu.Unlock()

	ms.logger.Info("MEMORY", "Memory facts ingested", map[string]interface{}{"added": len(facts), "total": total})
	ms.publisher.Publish(ctx, events.New(events.MemoryFeedChanged, map[string]interface{}{
		"added": len(facts),
		"total": total,
	}))
}

func (ms *memoryFeedService) Entries() []entity.MemoryFact {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	out := make([]entity.MemoryFact, len(ms.entries))
	copy(out, ms.entries)
	return out
}

func (ms *memoryFeedService) Count() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.entries)
}

// Clear is reserved for the shell's reset path.
func (ms *memoryFeedService) Clear(ctx context.Context) {
	ms.mu.Lock()
	ms.entries = []entity.MemoryFact{}
	ms.mu.Unlock()

	ms.publisher.Publish(ctx, events.New(events.MemoryFeedChanged, map[string]interface{}{
		"added": 0,
		"total": 0,
	}))
}
