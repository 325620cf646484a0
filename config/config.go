// Package config provides configuration loading and management for obmalloy.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

var validate = validator.New()

// Config represents the complete obmalloy configuration
type Config struct {
	Models  ModelsConfig  `yaml:"models"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ModelsConfig selects the model files
type ModelsConfig struct {
	// Name is the model name reported in logs and output headers
	Name string `yaml:"name" validate:"required"`
	// Paths are doublestar glob patterns (e.g., "models/**/*.yaml")
	Paths []string `yaml:"paths"`
}

// OutputConfig configures the constraint writer
type OutputConfig struct {
	// Path is the destination file (empty = stdout)
	Path string `yaml:"path"`
	// Format is alloy or json; empty means derived from Path
	Format string `yaml:"format" validate:"omitempty,oneof=alloy json"`
	// Module is the Alloy module name
	Module string `yaml:"module" validate:"required"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

// MetricsConfig configures the Prometheus textfile export
type MetricsConfig struct {
	// File is the textfile collector destination (empty = disabled)
	File string `yaml:"file"`
}

// WatchConfig configures the model file watcher
type WatchConfig struct {
	// Debounce delays recompilation after the last file event
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Models: ModelsConfig{
			Name:  "model",
			Paths: []string{"models/**/*.yaml", "models/**/*.json"},
		},
		Output: OutputConfig{
			Path:   "", // stdout
			Format: "",
			Module: "behavior",
		},
		Log: LogConfig{
			Level: "info",
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%w: %s: failed %s", ErrInvalidConfig, yamlPath(e.Namespace()), e.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, p := range c.Models.Paths {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("%w: models.paths contains an empty pattern", ErrInvalidConfig)
		}
	}
	return nil
}

// yamlPath turns Config.Output.Format into output.format.
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.ToLower(strings.Join(parts, "."))
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Models
	if other.Models.Name != "" {
		c.Models.Name = other.Models.Name
	}
	if len(other.Models.Paths) > 0 {
		c.Models.Paths = other.Models.Paths
	}

	// Output
	if other.Output.Path != "" {
		c.Output.Path = other.Output.Path
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Module != "" {
		c.Output.Module = other.Output.Module
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}

	// Metrics
	if other.Metrics.File != "" {
		c.Metrics.File = other.Metrics.File
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
