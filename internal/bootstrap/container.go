package bootstrap

import (
	"context"
	"fmt"
	"time"

	"ai-knowledge-client/internal/config"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/pkg/serverutils"
	"ai-knowledge-client/internal/repository/contract"
	"ai-knowledge-client/internal/repository/implementation"
	"ai-knowledge-client/internal/repository/memory"
	"ai-knowledge-client/internal/service"
	"ai-knowledge-client/pkg/assistant"
	"ai-knowledge-client/pkg/assistant/httpclient"

	pktNats "ai-knowledge-client/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const tokenTTL = 12 * time.Hour

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Event bus shared by every component and observer.
	PubSub *gochannel.GoChannel

	API assistant.API

	Publisher    service.IPublisherService
	Notifier     service.INotificationService
	Catalog      service.ICatalogService
	Upload       service.IUploadService
	Chat         service.IChatService
	MemoryFeed   service.IMemoryFeedService
	MemoryMirror service.IMemoryMirrorService
	Shell        service.IShellService

	// Bridge is nil unless NATS_URL is configured.
	Bridge service.IEventBridgeService

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Config: cfg, Logger: sysLogger}

	// 1. Event Bus
	var watermillLogger watermill.LoggerAdapter = watermill.NopLogger{}
	if cfg.App.Debug {
		watermillLogger = watermill.NewStdLogger(true, false)
	}
	// Publishing waits for every observer to ack so they see events in order.
	c.PubSub = gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = c.PubSub.Close() })

	// 2. Remote service
	token := cfg.Service.Token
	if token == "" && cfg.Service.JWTSecret != "" {
		minted, err := serverutils.MintToken(cfg.Service.JWTSecret, "assistant-cli", tokenTTL)
		if err != nil {
			return nil, fmt.Errorf("mint service token: %w", err)
		}
		token = minted
	}
	c.API = httpclient.NewClient(cfg.Service.BaseURL, cfg.Service.Timeout, httpclient.WithToken(token))

	// 3. Repositories
	sessionRepo := c.newSessionRepository(ctx)
	memoryDocRepo := memory.NewMemoryDocumentRepository(0)

	// 4. Services
	c.Publisher = service.NewPublisherService(cfg.Events.Topic, c.PubSub, sysLogger)
	c.Notifier = service.NewNotificationService(c.Publisher, sysLogger)
	c.Catalog = service.NewCatalogService(c.API, c.Publisher, sysLogger)
	c.Upload = service.NewUploadService(c.API, c.Catalog, c.Publisher, c.Notifier, sysLogger, service.UploadPacing{
		Parse:  cfg.Upload.ParseDelay,
		Chunk:  cfg.Upload.ChunkDelay,
		Settle: cfg.Upload.SettleDelay,
	})
	c.MemoryFeed = service.NewMemoryFeedService(c.Publisher, sysLogger)
	c.Chat = service.NewChatService(c.API, c.MemoryFeed, c.Publisher, sysLogger)
	c.MemoryMirror = service.NewMemoryMirrorService(c.PubSub, cfg.Events.Topic, c.API, memoryDocRepo, c.Publisher, sysLogger)

	shell, err := service.NewShellService(ctx, c.API, c.Catalog, c.Chat, c.MemoryFeed, c.MemoryMirror,
		sessionRepo, cfg.App.SessionProfile, c.Publisher, c.Notifier, sysLogger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}
	c.Shell = shell

	// 5. Optional NATS bridge
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			sysLogger.Warn("BRIDGE", "Failed to connect to NATS, events stay local", map[string]interface{}{"error": err.Error()})
		} else {
			c.closers = append(c.closers, natsPub.Close)
			c.Bridge = service.NewEventBridgeService(c.PubSub, cfg.Events.Topic, natsPub, sysLogger)
		}
	}

	return c, nil
}

// Start launches the background consumers. Call it before the first event is published.
func (c *Container) Start(ctx context.Context) error {
	if err := c.MemoryMirror.Consume(ctx); err != nil {
		return fmt.Errorf("start memory mirror: %w", err)
	}
	if c.Bridge != nil {
		if err := c.Bridge.Consume(ctx); err != nil {
			return fmt.Errorf("start event bridge: %w", err)
		}
	}
	return nil
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// newSessionRepository prefers Redis so separate invocations share a session,
// and falls back to process memory when Redis is absent or unreachable.
func (c *Container) newSessionRepository(ctx context.Context) contract.ChatSessionRepository {
	if c.Config.App.RedisURL == "" {
		return memory.NewSessionRepository()
	}

	opt, err := redis.ParseURL(c.Config.App.RedisURL)
	if err != nil {
		c.Logger.Warn("SHELL", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: c.Config.App.RedisURL}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.Logger.Warn("SHELL", "Failed to connect to Redis, session is not persisted", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return memory.NewSessionRepository()
	}

	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return implementation.NewRedisChatSessionRepository(rdb)
}
