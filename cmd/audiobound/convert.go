package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/audiobound/audiobound/internal/config"
	"github.com/audiobound/audiobound/internal/orchestrator"
	"github.com/audiobound/audiobound/internal/parser"
	"github.com/audiobound/audiobound/internal/progress"
	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/pkg/types"
)

var (
	convertOutputDir string
	convertLanguage  string
	convertBookName  string
	convertVoices    []string
)

func newConvertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Converts a single book file into an audiobook, starting fresh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd.Context(), args[0], false)
		},
	}
	cmd.Flags().StringVar(&convertOutputDir, "output", "", "output directory (required)")
	cmd.Flags().StringVar(&convertLanguage, "language", "en-US", "book language")
	cmd.Flags().StringVar(&convertBookName, "book-name", "", "book name (defaults to the file name)")
	cmd.Flags().StringSliceVar(&convertVoices, "voices", nil, "enabled voice IDs (defaults to the full catalog)")
	cmd.MarkFlagRequired("output")
	return cmd
}

func runConvert(ctx context.Context, path string, resume bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	storageAdapter, err := storage.NewAdapter(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage adapter: %w", err)
	}
	defer storageAdapter.Close()

	deps, err := buildOrchestratorDependencies(cfg, storageAdapter)
	if err != nil {
		return err
	}
	orch := orchestrator.New(deps)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	ext := strings.TrimPrefix(strings.ToLower(pathExt(path)), ".")
	p, err := parser.NewFactory().GetParser(ext)
	if err != nil {
		return fmt.Errorf("unsupported format %q: %w", ext, err)
	}
	paragraphs, err := p.Parse(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	bookName := convertBookName
	if bookName == "" {
		bookName = strings.TrimSuffix(pathBase(path), pathExt(path))
	}

	enabledVoices := convertVoices
	if len(enabledVoices) == 0 {
		enabledVoices = allVoiceIDs(deps.VoiceCatalog)
	}

	input := defaultOrchestratorInput(cfg, deps.VoiceCatalog)
	input.BookName = bookName
	input.Language = convertLanguage
	input.OutputDir = convertOutputDir
	input.Text = strings.Join(paragraphs, "\n\n")
	input.Rendering.EnabledVoices = enabledVoices

	bus := progress.NewBus()
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()
	go func() {
		for e := range events {
			slog.Info("progress", "stage", e.Stage, "current", e.Current, "total", e.Total, "message", e.Message)
		}
	}()

	confirmResume := func() (bool, error) { return resume, nil }
	result, err := orch.Run(ctx, input, bus, confirmResume, orchestrator.NoReview)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	slog.Info("conversion finished", "status", result.Status, "book", bookName)
	if result.Status != types.RunComplete {
		return fmt.Errorf("conversion ended in status %q: %s", result.Status, result.Message)
	}
	return nil
}

func pathExt(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[i:]
}

func pathBase(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return path
	}
	return path[i+1:]
}
