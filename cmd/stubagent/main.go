package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-knowledge-client/internal/config"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/stubserver"
	"ai-knowledge-client/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Logger and tracer
	zapLog := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer zapLog.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, "assistant-stub-agent", zapLog)
	defer shutdownTracer(context.Background())

	// 3. Initialize Server
	srv := stubserver.New(stubserver.Config{JWTSecret: cfg.Service.JWTSecret}, zapLog)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("Shutting down stub agent...")
		_ = srv.Shutdown()
	}()

	// 4. Run Server
	if err := srv.Run(":" + cfg.App.StubPort); err != nil {
		log.Printf("Stub agent stopped: %v", err)
	}
}
