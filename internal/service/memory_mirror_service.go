package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-knowledge-client/internal/entity"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/repository/contract"
	"ai-knowledge-client/pkg/assistant"
	"ai-knowledge-client/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"golang.org/x/sync/errgroup"
)

// IMemoryMirrorService keeps a read-only copy of the user and company memory
// documents. It never feeds back into the memory feed.
type IMemoryMirrorService interface {
	Consume(ctx context.Context) error
	Refresh(ctx context.Context) error
	Snapshot() entity.MemoryDocuments
	Clear()
}

type memoryMirrorService struct {
	subscriber message.Subscriber
	topicName  string
	api        assistant.API
	repo       contract.MemoryDocumentRepository
	publisher  IPublisherService
	logger     logger.ILogger

	mu        sync.Mutex
	fetchedAt time.Time
}

func NewMemoryMirrorService(
	subscriber message.Subscriber,
	topicName string,
	api assistant.API,
	repo contract.MemoryDocumentRepository,
	publisher IPublisherService,
	log logger.ILogger,
) IMemoryMirrorService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &memoryMirrorService{
		subscriber: subscriber,
		topicName:  topicName,
		api:        api,
		repo:       repo,
		publisher:  publisher,
		logger:     log,
	}
}

// Consume refreshes the mirror whenever the feed changes.
func (ms *memoryMirrorService) Consume(ctx context.Context) error {
	messages, err := ms.subscriber.Subscribe(ctx, ms.topicName)
	if err != nil {
		return err
	}

	// Feed changes arriving during a fetch collapse into one follow-up refresh.
	pending := make(chan struct{}, 1)

	go func() {
		defer close(pending)
		for msg := range messages {
			msg.Ack()
			if msg.Metadata.Get(events.MetadataType) != events.MemoryFeedChanged {
				continue
			}
			select {
			case pending <- struct{}{}:
			default:
			}
		}
	}()

	go func() {
		for range pending {
			if ctx.Err() != nil {
				return
			}
			_ = ms.Refresh(ctx)
		}
	}()

	return nil
}

// Refresh fetches both documents concurrently and keeps the previous contents
// unless both succeed.
func (ms *memoryMirrorService) Refresh(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var userDoc, companyDoc string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := ms.api.GetMemory(gctx, string(entity.MemoryTargetUser))
		if err != nil {
			return fmt.Errorf("fetch user memory: %w", err)
		}
		userDoc = res.Content
		return nil
	})
	g.Go(func() error {
		res, err := ms.api.GetMemory(gctx, string(entity.MemoryTargetCompany))
		if err != nil {
			return fmt.Errorf("fetch company memory: %w", err)
		}
		companyDoc = res.Content
		return nil
	})

	if err := g.Wait(); err != nil {
		ms.logger.Error("MEMORY", "Failed to fetch memory", map[string]interface{}{"error": err.Error()})
		return err
	}

	ms.repo.Save(string(entity.MemoryTargetUser), userDoc)
	ms.repo.Save(string(entity.MemoryTargetCompany), companyDoc)
	ms.fetchedAt = time.Now()

	ms.publisher.Publish(ctx, events.New(events.MemoryMirrorSynced, map[string]interface{}{
		"user_bytes":    len(userDoc),
		"company_bytes": len(companyDoc),
	}))
	return nil
}

func (ms *memoryMirrorService) Snapshot() entity.MemoryDocuments {
	ms.mu.Lock()
	fetchedAt := ms.fetchedAt
	ms.mu.Unlock()

	userDoc, _ := ms.repo.Get(string(entity.MemoryTargetUser))
	companyDoc, _ := ms.repo.Get(string(entity.MemoryTargetCompany))
	return entity.MemoryDocuments{
		User:      userDoc,
		Company:   companyDoc,
		FetchedAt: fetchedAt,
	}
}

func (ms *memoryMirrorService) Clear() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.repo.Clear()
	ms.fetchedAt = time.Time{}
}
