// Package config loads classifier settings from TOML with environment
// variable and command line overrides.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/emergingrobotics/go-magika/pkg/logging"
)

const (
	// DefaultModelDir is used when neither the file nor the environment names a model
	DefaultModelDir = "models/standard_v3_3"

	EnvModelDir   = "MAGIKA_MODEL_DIR"
	EnvORTLibrary = "MAGIKA_ORT_LIBRARY"
)

// Config is the root configuration
type Config struct {
	Model    ModelConfig    `toml:"model"`
	Runtime  RuntimeConfig  `toml:"runtime"`
	Classify ClassifyConfig `toml:"classify"`
	Logging  logging.Config `toml:"logging"`
}

// ModelConfig locates the model assets
type ModelConfig struct {
	Dir string `toml:"dir"`
}

// RuntimeConfig configures ONNX Runtime
type RuntimeConfig struct {
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search.
	LibraryPath    string `toml:"library_path"`
	IntraOpThreads int    `toml:"intra_op_threads"`
}

// Load reads a TOML file. An empty path yields an empty configuration.
// The result still needs Finalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Finalize applies defaults, loads environment overrides, and validates
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Classify.Finalize(); err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	if err := c.Logging.Finalize(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Merge applies non-zero values from overlay
func (c *Config) Merge(overlay *Config) {
	if overlay.Model.Dir != "" {
		c.Model.Dir = overlay.Model.Dir
	}
	if overlay.Runtime.LibraryPath != "" {
		c.Runtime.LibraryPath = overlay.Runtime.LibraryPath
	}
	if overlay.Runtime.IntraOpThreads != 0 {
		c.Runtime.IntraOpThreads = overlay.Runtime.IntraOpThreads
	}
	c.Classify.Merge(&overlay.Classify)
	c.Logging.Merge(&overlay.Logging)
}

func (c *Config) loadDefaults() {
	if c.Model.Dir == "" {
		c.Model.Dir = DefaultModelDir
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvModelDir); v != "" {
		c.Model.Dir = v
	}
	if v := os.Getenv(EnvORTLibrary); v != "" {
		c.Runtime.LibraryPath = v
	}
}

func (c *Config) validate() error {
	if c.Runtime.IntraOpThreads < 0 {
		return fmt.Errorf("runtime: intra_op_threads must not be negative")
	}
	return nil
}
