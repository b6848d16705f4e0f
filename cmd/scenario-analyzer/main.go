package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dmvision/scenario-analyzer/internal/config"
	"github.com/dmvision/scenario-analyzer/internal/server"
	"github.com/dmvision/scenario-analyzer/pkg/aiclient"
	"github.com/dmvision/scenario-analyzer/pkg/pipeline"
	"github.com/dmvision/scenario-analyzer/pkg/scenario"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Logging.Format == "json" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Configuration validation failed", zap.Error(err))
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ai, err := newVisionClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create AI client", zap.Error(err))
	}

	registry := scenario.NewRegistry()
	pipe := pipeline.New(registry, ai, logger)
	srv := server.New(registry, pipe, logger, cfg.Upload.MaxSize)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("addr", addr),
			zap.String("ai_provider", cfg.AI.Provider),
			zap.String("ai_model", cfg.AI.Model))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newVisionClient(cfg *config.Config) (aiclient.VisionClient, error) {
	switch cfg.AI.Provider {
	case "llamacpp":
		return aiclient.NewLlamaCppClient(cfg.AI.URL, cfg.AI.Model)
	default:
		return aiclient.NewOllamaClient(cfg.AI.URL, cfg.AI.Model)
	}
}
