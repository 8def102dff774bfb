package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/docker/go-units"

	"github.com/emergingrobotics/go-magika/pkg/infer"
	"github.com/emergingrobotics/go-magika/pkg/magika"
)

const (
	EnvPredictionMode = "MAGIKA_PREDICTION_MODE"
	EnvWorkers        = "MAGIKA_WORKERS"
)

// ClassifyConfig holds classifier settings
type ClassifyConfig struct {
	PredictionMode string `toml:"prediction_mode"`
	BatchSize      int    `toml:"batch_size"`
	Workers        int    `toml:"workers"`
	Timeout        string `toml:"timeout"`
	Dereference    *bool  `toml:"dereference"`

	// MaxStdinSize bounds how much of stdin is buffered, e.g. "100MB"
	MaxStdinSize    string `toml:"max_stdin_size"`
	maxStdinSizeVal int64
	timeoutVal      time.Duration
}

// Mode returns the validated prediction mode
func (c *ClassifyConfig) Mode() magika.PredictionMode {
	return magika.PredictionMode(c.PredictionMode)
}

// TimeoutDuration returns the parsed inference timeout
func (c *ClassifyConfig) TimeoutDuration() time.Duration {
	return c.timeoutVal
}

// MaxStdinSizeBytes returns the parsed stdin limit
func (c *ClassifyConfig) MaxStdinSizeBytes() int64 {
	return c.maxStdinSizeVal
}

// FollowSymlinks reports whether symlinks are dereferenced
func (c *ClassifyConfig) FollowSymlinks() bool {
	return c.Dereference == nil || *c.Dereference
}

// Options converts the settings into classifier options
func (c *ClassifyConfig) Options() []magika.Option {
	return []magika.Option{
		magika.WithPredictionMode(c.Mode()),
		magika.WithBatchSize(c.BatchSize),
		magika.WithWorkers(c.Workers),
		magika.WithTimeout(c.timeoutVal),
		magika.WithDereference(c.FollowSymlinks()),
	}
}

// Finalize applies defaults, loads environment overrides, and validates
func (c *ClassifyConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

// Merge applies non-zero values from overlay
func (c *ClassifyConfig) Merge(overlay *ClassifyConfig) {
	if overlay.PredictionMode != "" {
		c.PredictionMode = overlay.PredictionMode
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.Dereference != nil {
		follow := *overlay.Dereference
		c.Dereference = &follow
	}
	if overlay.MaxStdinSize != "" {
		c.MaxStdinSize = overlay.MaxStdinSize
	}
}

func (c *ClassifyConfig) loadDefaults() {
	if c.PredictionMode == "" {
		c.PredictionMode = string(magika.HighConfidence)
	}
	if c.BatchSize == 0 {
		c.BatchSize = infer.DefaultBatchSize
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Timeout == "" {
		c.Timeout = infer.DefaultTimeout.String()
	}
	if c.MaxStdinSize == "" {
		c.MaxStdinSize = "100MB"
	}
}

func (c *ClassifyConfig) loadEnv() error {
	if v := os.Getenv(EnvPredictionMode); v != "" {
		c.PredictionMode = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

func (c *ClassifyConfig) validate() error {
	if _, err := magika.ParsePredictionMode(c.PredictionMode); err != nil {
		return err
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be positive")
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	c.timeoutVal = d

	size, err := units.FromHumanSize(c.MaxStdinSize)
	if err != nil {
		return fmt.Errorf("invalid max_stdin_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_stdin_size must be positive")
	}
	c.maxStdinSizeVal = size

	return nil
}
