package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"inventory-dashboard/internal"
	"inventory-dashboard/internal/config"
	"inventory-dashboard/internal/logging"
)

func main() {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer logger.Sync()

	srv, err := internal.NewServer(cfg, logger)
	if err != nil {
		logger.Fatal("server setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting inventory dashboard", zap.String("environment", cfg.Environment))
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("server stopped")
}
