package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/audiobound/audiobound/internal/audio"
	"github.com/audiobound/audiobound/internal/llmclient"
	"github.com/audiobound/audiobound/internal/llmpipeline"
	"github.com/audiobound/audiobound/internal/orchestrator"
	"github.com/audiobound/audiobound/internal/profile"
	"github.com/audiobound/audiobound/internal/storage"
	"github.com/audiobound/audiobound/internal/tts"
	"github.com/audiobound/audiobound/internal/voice"
	"github.com/audiobound/audiobound/pkg/types"
)

// buildLLMClient constructs an llmclient.Client from a provider config
// entry, dispatching on Kind.
func buildLLMClient(p types.ProviderConfig) (llmclient.Client, error) {
	switch p.Kind {
	case "anthropic":
		return llmclient.NewAnthropicClient(p.APIKey, p.Options["api_url"], p.Model)
	case "openai", "":
		return llmclient.NewOpenAIClient(p.APIKey, p.Options["api_url"], p.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider kind: %q", p.Kind)
	}
}

// buildSpeaker constructs a tts.Speaker from a provider config entry.
func buildSpeaker(p types.ProviderConfig) (tts.Speaker, error) {
	switch p.Kind {
	case "stub", "":
		return tts.NewStubSpeaker(), nil
	case "openai":
		timeout := 30 * time.Second
		return tts.NewOpenAISpeaker(p.APIKey, p.Options["api_url"], p.Model, timeout)
	default:
		return nil, fmt.Errorf("unknown tts provider kind: %q", p.Kind)
	}
}

// firstEnabled returns the first enabled provider config. If every entry
// is disabled it returns the first entry; it returns the zero value only
// when providers is empty.
func firstEnabled(providers []types.ProviderConfig) types.ProviderConfig {
	for _, p := range providers {
		if p.Enabled {
			return p
		}
	}
	if len(providers) > 0 {
		return providers[0]
	}
	return types.ProviderConfig{}
}

// buildProfileStore selects a profile.Store per cfg.Pipeline: a Postgres
// store when one is configured via storage (not currently exposed in
// StorageConfig, so this always returns the filesystem store for now) —
// kept as its own function so a future Postgres wire-up has one seam.
func buildProfileStore(storageAdapter storage.Adapter) profile.Store {
	return profile.NewFileStore(storageAdapter)
}

// buildOrchestratorDependencies constructs the shared, process-lifetime
// Dependencies every job's Orchestrator.Run call is driven by: one LLM
// client reused across extract/merge/assign, one speaker, the ffmpeg
// encoder, the profile store, and the voice catalog (overridden from
// cfg.VoiceCatalog if set).
func buildOrchestratorDependencies(cfg *types.Config, storageAdapter storage.Adapter) (orchestrator.Dependencies, error) {
	llmProvider := firstEnabled(cfg.Providers.LLM)
	client, err := buildLLMClient(llmProvider)
	if err != nil {
		return orchestrator.Dependencies{}, fmt.Errorf("failed to build llm client: %w", err)
	}

	speakerProvider := firstEnabled(cfg.Providers.TTS)
	speaker, err := buildSpeaker(speakerProvider)
	if err != nil {
		return orchestrator.Dependencies{}, fmt.Errorf("failed to build tts speaker: %w", err)
	}

	catalog := voice.DefaultCatalog()
	if cfg.VoiceCatalog != "" {
		loaded, err := voice.LoadCatalog(cfg.VoiceCatalog)
		if err != nil {
			return orchestrator.Dependencies{}, fmt.Errorf("failed to load voice catalog: %w", err)
		}
		catalog = loaded
	}

	return orchestrator.Dependencies{
		LLM: llmpipeline.Clients{
			Extract: client,
			Merge:   client,
			Assign:  client,
		},
		Speaker:      speaker,
		Encoder:      audio.NewEncoder(""),
		Profiles:     buildProfileStore(storageAdapter),
		VoiceCatalog: catalog,
		Logger:       slog.Default(),
	}, nil
}

// defaultCredentials builds the LLMStageCredentials shared by extract,
// merge, and assign from the first enabled LLM provider, so
// OrchestratorInput.validateInputs sees non-empty credentials matching
// the client buildOrchestratorDependencies actually constructed.
func defaultCredentials(cfg *types.Config) types.LLMStageCredentials {
	p := firstEnabled(cfg.Providers.LLM)
	return types.LLMStageCredentials{
		APIKey:      p.APIKey,
		APIURL:      p.Options["api_url"],
		Model:       p.Model,
		Temperature: 0.2,
		TopP:        1,
	}
}
