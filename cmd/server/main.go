package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/p1nka/cbuae-dormancy/internal/config"
	"github.com/p1nka/cbuae-dormancy/internal/logging"
	"github.com/p1nka/cbuae-dormancy/internal/server"
	"github.com/p1nka/cbuae-dormancy/internal/service"
	"github.com/p1nka/cbuae-dormancy/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	scanStore, err := store.NewSQLiteStore(cfg.Storage.Path)
	if err != nil {
		logger.Error("failed to open scan store", "error", err, "path", cfg.Storage.Path)
		os.Exit(1)
	}
	defer func() {
		if err := scanStore.Close(); err != nil {
			logger.Warn("closing scan store failed", "error", err)
		}
	}()

	complianceService := service.NewComplianceService(scanStore)
	apiHandlers := server.NewAPIHandlers(logger, complianceService)

	var basicAuth *server.BasicAuthCredentials
	if cfg.AuthEnabled() {
		basicAuth = &server.BasicAuthCredentials{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		}
	}

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.StoreHealthService{Store: scanStore},
		API:              apiHandlers,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
		BasicAuth:        basicAuth,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
