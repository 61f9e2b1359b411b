package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiobound/audiobound/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesServerAndStorage(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "localhost"
  port: 9090
  read_timeout: 10
  write_timeout: 10

storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"

pipeline:
  worker_pool_size: 2
  max_retries: 3
  retry_backoff_ms: 500
  temp_dir: "/tmp"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/test", cfg.Storage.Local.BasePath)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*types.Config)
		wantErr bool
	}{
		{name: "valid config", modify: func(c *types.Config) {}, wantErr: false},
		{name: "invalid port", modify: func(c *types.Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "invalid storage adapter", modify: func(c *types.Config) { c.Storage.Adapter = "invalid" }, wantErr: true},
		{
			name: "missing local base path",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "local"
				c.Storage.Local.BasePath = ""
			},
			wantErr: true,
		},
		{
			name: "missing s3 bucket",
			modify: func(c *types.Config) {
				c.Storage.Adapter = "s3"
				c.Storage.S3.Bucket = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefault()
			tt.modify(cfg)
			err := Validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "localhost"
  port: 8080
storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"
pipeline:
  worker_pool_size: 2
`)

	t.Setenv("AB_SERVER_PORT", "9999")
	t.Setenv("AB_STORAGE_LOCAL_BASE_PATH", "/tmp/override")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "/tmp/override", cfg.Storage.Local.BasePath)
}

func TestEnvOverridesApplyPerProvider(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
storage:
  adapter: "local"
  local:
    base_path: "/tmp/test"
providers:
  llm:
    - name: "openai"
      kind: "openai"
      model: "gpt-4o-mini"
`)

	t.Setenv("AB_LLM_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Providers.LLM, 1)
	assert.Equal(t, "sk-test", cfg.Providers.LLM[0].APIKey)
}

func TestGetDefault(t *testing.T) {
	cfg := GetDefault()
	require.NotNil(t, cfg)
	assert.Greater(t, cfg.Server.Port, 0)
	assert.NotEmpty(t, cfg.Storage.Adapter)
}
