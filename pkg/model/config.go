package model

import (
	"fmt"
	"math"
)

// Default tensor names used by published Magika models
const (
	DefaultInputName  = "bytes"
	DefaultOutputName = "target_label"
)

// Config mirrors a model directory's config.min.json
type Config struct {
	BegSize                   int                `json:"beg_size"`
	MidSize                   int                `json:"mid_size"`
	EndSize                   int                `json:"end_size"`
	BlockSize                 int                `json:"block_size"`
	PaddingToken              int32              `json:"padding_token"`
	MinFileSizeForDL          int                `json:"min_file_size_for_dl"`
	MediumConfidenceThreshold float32            `json:"medium_confidence_threshold"`
	TargetLabelsSpace         []string           `json:"target_labels_space"`
	Thresholds                map[string]float32 `json:"thresholds"`
	OverwriteMap              map[string]string  `json:"overwrite_map"`
	VersionMajor              int                `json:"version_major"`
	InputName                 string             `json:"input_name,omitempty"`
	OutputName                string             `json:"output_name,omitempty"`
}

// ConfigError reports a config.min.json that parsed but is not usable
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// InputWidth returns the number of tokens in one model input row
func (c *Config) InputWidth() int {
	return c.BegSize + c.MidSize + c.EndSize
}

// NumLabels returns the size of the model's output row
func (c *Config) NumLabels() int {
	return len(c.TargetLabelsSpace)
}

// Threshold returns the high-confidence threshold for label
func (c *Config) Threshold(label string) float32 {
	if t, ok := c.Thresholds[label]; ok {
		return t
	}
	return c.MediumConfidenceThreshold
}

// Overwrite returns the replacement label for label, if any
func (c *Config) Overwrite(label string) (string, bool) {
	to, ok := c.OverwriteMap[label]
	return to, ok
}

func (c *Config) loadDefaults() {
	if c.InputName == "" {
		c.InputName = DefaultInputName
	}
	if c.OutputName == "" {
		c.OutputName = DefaultOutputName
	}
}

// Validate checks that the config describes a usable model
func (c *Config) Validate() error {
	switch {
	case c.BegSize < 0:
		return &ConfigError{Field: "beg_size", Reason: "must not be negative"}
	case c.MidSize < 0:
		return &ConfigError{Field: "mid_size", Reason: "must not be negative"}
	case c.EndSize < 0:
		return &ConfigError{Field: "end_size", Reason: "must not be negative"}
	case c.InputWidth() == 0:
		return &ConfigError{Field: "beg_size", Reason: "beg_size, mid_size and end_size are all zero"}
	case c.BlockSize <= 0:
		return &ConfigError{Field: "block_size", Reason: "must be positive"}
	case c.BegSize > c.BlockSize:
		return &ConfigError{Field: "beg_size", Reason: "exceeds block_size"}
	case c.EndSize > c.BlockSize:
		return &ConfigError{Field: "end_size", Reason: "exceeds block_size"}
	case c.PaddingToken >= 0 && c.PaddingToken < 256:
		return &ConfigError{Field: "padding_token", Reason: "collides with a byte value"}
	case c.MinFileSizeForDL < 0:
		return &ConfigError{Field: "min_file_size_for_dl", Reason: "must not be negative"}
	case c.MinFileSizeForDL > c.BegSize:
		return &ConfigError{Field: "min_file_size_for_dl", Reason: "exceeds beg_size"}
	case !validProbability(c.MediumConfidenceThreshold):
		return &ConfigError{Field: "medium_confidence_threshold", Reason: "must be within [0, 1]"}
	case len(c.TargetLabelsSpace) == 0:
		return &ConfigError{Field: "target_labels_space", Reason: "must not be empty"}
	}

	known := make(map[string]bool, len(c.TargetLabelsSpace))
	for _, label := range c.TargetLabelsSpace {
		if label == "" {
			return &ConfigError{Field: "target_labels_space", Reason: "contains an empty label"}
		}
		if known[label] {
			return &ConfigError{Field: "target_labels_space", Reason: fmt.Sprintf("duplicate label %q", label)}
		}
		known[label] = true
	}

	for label, t := range c.Thresholds {
		if !validProbability(t) {
			return &ConfigError{Field: "thresholds", Reason: fmt.Sprintf("%q must be within [0, 1]", label)}
		}
	}

	for from, to := range c.OverwriteMap {
		if !known[from] {
			return &ConfigError{Field: "overwrite_map", Reason: fmt.Sprintf("unknown source label %q", from)}
		}
		if to == "" {
			return &ConfigError{Field: "overwrite_map", Reason: fmt.Sprintf("empty target for %q", from)}
		}
	}
	return nil
}

func validProbability(v float32) bool {
	return !math.IsNaN(float64(v)) && v >= 0 && v <= 1
}
