package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/theblitlabs/automl-studio/internal/api"
	"github.com/theblitlabs/automl-studio/internal/api/handlers"
	"github.com/theblitlabs/automl-studio/internal/config"
	"github.com/theblitlabs/automl-studio/internal/database"
	"github.com/theblitlabs/automl-studio/internal/database/repositories"
	"github.com/theblitlabs/automl-studio/internal/dataset"
	"github.com/theblitlabs/automl-studio/internal/insight"
	"github.com/theblitlabs/automl-studio/internal/services"
	"github.com/theblitlabs/automl-studio/internal/telemetry"
	"github.com/theblitlabs/automl-studio/pkg/logger"
)

// verifyPortAvailable checks if the given port is available for use
func verifyPortAvailable(host string, port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", host, portNum))
	if err != nil {
		return fmt.Errorf("port %s is not available: %w", port, err)
	}
	ln.Close()
	return nil
}

func RunServer(configPath string) {
	log := logger.Get()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	store, err := dataset.NewStore(cfg.Storage.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create data store")
	}
	if err := os.MkdirAll(cfg.Storage.ModelDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create model directory")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.RegistryPath), 0o755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create registry directory")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.Storage.RegistryPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open model registry")
	}
	log.Info().Str("path", cfg.Storage.RegistryPath).Msg("Model registry opened")

	registry := repositories.NewModelRepository(db)
	trainingService := services.NewTrainingService(store, registry, cfg.Storage.ModelDir, cfg.Training.MulticlassThreshold)
	modelService := services.NewModelService(registry, cfg.Storage.ModelDir, cfg.Training.Workers, cfg.Training.CacheMaxEntries)

	aiClient := insight.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)
	if aiClient.Available() {
		log.Info().Str("model", cfg.AI.Model).Msg("AI commentary enabled")
	} else {
		log.Info().Msg("AI commentary disabled, no API key configured")
	}

	metrics := telemetry.NewMetrics("automl")

	studioHandler := handlers.NewStudioHandler(cfg, store, trainingService, modelService, aiClient, metrics)
	router := api.NewRouter(studioHandler, metrics, cfg.Server.Endpoint, cfg.Server.StaticDir)

	if err := verifyPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatal().
			Err(err).
			Str("host", cfg.Server.Host).
			Str("port", cfg.Server.Port).
			Msg("Server port is not available")
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Handler(cfg.Server.AllowedOrigins),
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Info().
			Str("address", server.Addr).
			Str("endpoint", cfg.Server.Endpoint).
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	<-stopChan
	log.Info().Msg("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	} else {
		log.Info().Msg("Server HTTP connections gracefully closed")
	}

	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close model registry")
	}

	log.Info().Msg("Shutdown complete")
}
