package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/audiobound/audiobound/internal/api"
	"github.com/audiobound/audiobound/internal/book"
	"github.com/audiobound/audiobound/internal/config"
	"github.com/audiobound/audiobound/internal/health"
	"github.com/audiobound/audiobound/internal/orchestrator"
	"github.com/audiobound/audiobound/internal/packaging"
	"github.com/audiobound/audiobound/internal/parser"
	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/internal/voice"
	"github.com/audiobound/audiobound/pkg/types"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API that accepts uploads and drives conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting audiobound server", "version", version, "config", configPath)

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage adapter: %w", err)
	}
	defer storageAdapter.Close()
	slog.Info("storage adapter ready", "adapter", cfg.Storage.Adapter)

	deps, err := buildOrchestratorDependencies(cfg, storageAdapter)
	if err != nil {
		return err
	}
	orch := orchestrator.New(deps)

	bookRepo := book.NewRepository(storageAdapter)
	parserFactory := parser.NewFactory()
	packagingService := packaging.NewService()

	defaults := defaultOrchestratorInput(cfg, deps.VoiceCatalog)

	bookHandler := api.NewBookHandler(bookRepo, parserFactory, orch, packagingService, defaults)
	voicesHandler := api.NewVoicesHandler(deps.VoiceCatalog)

	healthHandler := health.NewHandler(version)
	healthHandler.Register("storage", func(ctx context.Context) (health.Status, error) {
		if _, err := storageAdapter.Exists(ctx, ".healthcheck"); err != nil {
			return health.StatusUnhealthy, err
		}
		return health.StatusHealthy, nil
	})

	router := api.NewRouter(bookHandler, voicesHandler, healthHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		slog.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// defaultOrchestratorInput builds the OrchestratorInput template applied to
// every upload: LLM credentials from the first enabled provider, every
// catalog voice enabled by default, and cfg.Pipeline.TempDir as the render
// destination.
func defaultOrchestratorInput(cfg *types.Config, catalog []voice.Meta) types.OrchestratorInput {
	creds := defaultCredentials(cfg)
	return types.OrchestratorInput{
		Extract: creds,
		Merge:   creds,
		Assign:  creds,
		Rendering: types.RenderingSettings{
			NarratorVoice: "en-US, onyx",
			DefaultVoice:  "en-US, onyx",
			LLMThreads:    cfg.Pipeline.WorkerPoolSize,
			TTSThreads:    cfg.Pipeline.WorkerPoolSize,
			EnabledVoices: allVoiceIDs(catalog),
		},
		AudioProcessing: types.AudioProcessingSettings{
			SilenceRemoval: true,
			Normalization:  true,
			SilenceGapMs:   300,
			Opus:           types.OpusSettings{MinBitrate: 24, MaxBitrate: 64, CompressionLevel: 8},
		},
		Ladder:    types.DefaultLadderSettings(),
		OutputDir: cfg.Pipeline.TempDir,
	}
}

func allVoiceIDs(catalog []voice.Meta) []string {
	ids := make([]string, len(catalog))
	for i, m := range catalog {
		ids[i] = m.ID
	}
	return ids
}
