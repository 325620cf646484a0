package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "model", cfg.Models.Name)
	assert.Equal(t, []string{"models/**/*.yaml", "models/**/*.json"}, cfg.Models.Paths)
	assert.Equal(t, "behavior", cfg.Output.Module)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			modify: func(c *Config) {},
		},
		{
			name:   "json format",
			modify: func(c *Config) { c.Output.Format = "json" },
		},
		{
			name:    "missing model name",
			modify:  func(c *Config) { c.Models.Name = "" },
			wantErr: "models.name",
		},
		{
			name:    "missing module",
			modify:  func(c *Config) { c.Output.Module = "" },
			wantErr: "output.module",
		},
		{
			name:    "unknown format",
			modify:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "output.format",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "trace" },
			wantErr: "log.level",
		},
		{
			name:    "negative debounce",
			modify:  func(c *Config) { c.Watch.Debounce = -time.Second },
			wantErr: "watch.debounce",
		},
		{
			name:    "empty model pattern",
			modify:  func(c *Config) { c.Models.Paths = []string{" "} },
			wantErr: "empty pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
models:
  name: "orders"
  paths:
    - "specs/**/*.yaml"
output:
  path: "out/orders.als"
  format: "alloy"
  module: "orders"
log:
  level: "debug"
metrics:
  file: "metrics.prom"
watch:
  debounce: 2s
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.Models.Name)
	assert.Equal(t, []string{"specs/**/*.yaml"}, cfg.Models.Paths)
	assert.Equal(t, "out/orders.als", cfg.Output.Path)
	assert.Equal(t, "alloy", cfg.Output.Format)
	assert.Equal(t, "orders", cfg.Output.Module)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "metrics.prom", cfg.Metrics.File)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("models: [\n"), 0644))
	_, err = LoadFromFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Models: ModelsConfig{
			Paths: []string{"other/*.json"},
		},
		Output: OutputConfig{
			Format: "json",
		},
	}

	base.Merge(override)

	assert.Equal(t, []string{"other/*.json"}, base.Models.Paths)
	assert.Equal(t, "json", base.Output.Format)
	// Fields the override leaves empty keep their defaults
	assert.Equal(t, "model", base.Models.Name)
	assert.Equal(t, "behavior", base.Output.Module)
	assert.Equal(t, "info", base.Log.Level)

	base.Merge(nil)
	assert.Equal(t, "json", base.Output.Format)
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Output.Module = "saved"

	require.NoError(t, cfg.SaveToFile(configPath))
	_, err := os.Stat(configPath)
	require.NoError(t, err)

	loaded, err := LoadFromFile(configPath)
	require.NoError(t, err)
	assert.Equal(t, "saved", loaded.Output.Module)
	assert.Equal(t, cfg.Watch.Debounce, loaded.Watch.Debounce)
}
