// Package config loads the application's YAML configuration file, applies
// environment variable overrides, and fills in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/audiobound/audiobound/pkg/types"
)

// Load reads and parses the configuration file at configPath, applies any
// .env file found alongside it, then AB_-prefixed environment variable
// overrides, and validates the result.
func Load(configPath string) (*types.Config, error) {
	loadDotEnv(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads a .env file next to configPath, if one exists. Missing
// files are not an error; this is a convenience for local development.
func loadDotEnv(configPath string) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envPath); err == nil {
		_ = godotenv.Load(envPath)
	}
}

// Validate checks that cfg is complete enough to start the application.
func Validate(cfg *types.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.Storage.Adapter != "local" && cfg.Storage.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}

	if cfg.Storage.Adapter == "local" {
		if cfg.Storage.Local.BasePath == "" {
			return fmt.Errorf("local storage base_path is required")
		}
		if !filepath.IsAbs(cfg.Storage.Local.BasePath) {
			return fmt.Errorf("local storage base_path must be absolute: %s", cfg.Storage.Local.BasePath)
		}
	}

	if cfg.Storage.Adapter == "s3" {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	if cfg.Pipeline.WorkerPoolSize <= 0 {
		cfg.Pipeline.WorkerPoolSize = 4
	}
	if cfg.Pipeline.MaxRetries < 0 {
		cfg.Pipeline.MaxRetries = 3
	}

	return nil
}

// applyEnvOverrides applies AB_-prefixed environment variable overrides.
func applyEnvOverrides(cfg *types.Config) {
	if val := os.Getenv("AB_SERVER_HOST"); val != "" {
		cfg.Server.Host = val
	}
	if val := os.Getenv("AB_SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &cfg.Server.Port)
	}

	if val := os.Getenv("AB_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("AB_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("AB_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("AB_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("AB_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("AB_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("AB_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}
	if val := os.Getenv("AB_VOICE_CATALOG"); val != "" {
		cfg.VoiceCatalog = val
	}

	applyProviderEnvOverrides(cfg)
}

// applyProviderEnvOverrides applies AB_LLM_<NAME>_* / AB_TTS_<NAME>_*
// overrides, letting credentials live outside the checked-in config file.
func applyProviderEnvOverrides(cfg *types.Config) {
	for i := range cfg.Providers.LLM {
		prefix := fmt.Sprintf("AB_LLM_%s_", strings.ToUpper(cfg.Providers.LLM[i].Name))
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.LLM[i].APIKey = val
		}
		if val := os.Getenv(prefix + "MODEL"); val != "" {
			cfg.Providers.LLM[i].Model = val
		}
	}

	for i := range cfg.Providers.TTS {
		prefix := fmt.Sprintf("AB_TTS_%s_", strings.ToUpper(cfg.Providers.TTS[i].Name))
		if val := os.Getenv(prefix + "API_KEY"); val != "" {
			cfg.Providers.TTS[i].APIKey = val
		}
		if val := os.Getenv(prefix + "MODEL"); val != "" {
			cfg.Providers.TTS[i].Model = val
		}
	}
}

// GetDefault returns a default configuration, used as the base that Load
// overlays the config file and environment onto.
func GetDefault() *types.Config {
	return &types.Config{
		Server: types.ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15,
			WriteTimeout: 15,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
			Local: types.LocalStorageOpts{
				BasePath: "/var/lib/audiobound/storage",
			},
		},
		Pipeline: types.PipelineConfig{
			WorkerPoolSize: 4,
			MaxRetries:     3,
			RetryBackoffMs: 1000,
			TempDir:        "/tmp/audiobound",
		},
	}
}
