package stubserver

import (
	"net"
	"time"

	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type Config struct {
	// JWTSecret enables bearer token checks when set.
	JWTSecret string
}

// Server is a local stand-in for the remote agent service.
type Server struct {
	app    *fiber.App
	store  *Store
	logger logger.ILogger
}

func New(cfg Config, log logger.ILogger) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             10 * 1024 * 1024, // 10MB
		UnescapePath:          true,
		DisableStartupMessage: true,
		ErrorHandler:          serverutils.ErrorHandler(log),
	})

	app.Use(requestLogger(log))

	store := NewStore()
	var protect []fiber.Handler
	if cfg.JWTSecret != "" {
		protect = append(protect, serverutils.JwtMiddleware(cfg.JWTSecret))
	}
	NewAgentController(store, log).RegisterRoutes(app.Group("/api"), protect...)

	return &Server{app: app, store: store, logger: log}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Run(addr string) error {
	s.logger.Info("STUB", "Agent stub is running", map[string]interface{}{"addr": addr})
	return s.app.Listen(addr)
}

// Serve runs on an existing listener, e.g. a loopback port chosen by a test.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

func requestLogger(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()
		log.Debug("HTTP", "Request handled", map[string]interface{}{
			"method":      ctx.Method(),
			"path":        ctx.Path(),
			"status":      ctx.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return err
	}
}
