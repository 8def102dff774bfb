package logging

import (
	"os"
	"strconv"
)

const (
	EnvLevel  = "MAGIKA_LOG_LEVEL"
	EnvFormat = "MAGIKA_LOG_FORMAT"
	EnvSource = "MAGIKA_LOG_SOURCE"
)

// Config holds logging settings
type Config struct {
	Level  Level  `toml:"level"`
	Format Format `toml:"format"`
	// AddSource annotates records with file:line and keeps timestamps
	AddSource bool `toml:"add_source"`
}

// Finalize applies defaults and environment overrides, then validates
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge applies non-zero values from overlay
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.AddSource {
		c.AddSource = true
	}
}

func (c *Config) loadDefaults() {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvLevel); v != "" {
		c.Level = Level(v)
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = Format(v)
	}
	if v := os.Getenv(EnvSource); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.AddSource = on
		}
	}
}

func (c *Config) validate() error {
	if err := c.Level.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}
