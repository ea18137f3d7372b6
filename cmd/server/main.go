package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"failarchive/internal/ai"
	"failarchive/internal/config"
	"failarchive/internal/db"
	"failarchive/internal/logging"
	"failarchive/internal/router"
	"failarchive/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	conn, err := db.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("Database unavailable", zap.Error(err))
	}

	client, err := ai.New(ctx, cfg.AI)
	if err != nil {
		logger.Fatal("Failed to initialize AI client", zap.Error(err))
	}

	svc, err := services.NewBundle(conn, client, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg.SessionSecret, cfg.IsProduction(), logger, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Failure Archive server starting", zap.String("addr", srv.Addr), zap.String("ai_provider", cfg.AI.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	svc.Close()

	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.Close()
	}
}
