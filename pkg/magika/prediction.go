package magika

import (
	"fmt"

	"github.com/emergingrobotics/go-magika/pkg/model"
)

// PredictionMode selects how much confidence a model label needs before
// it is reported as-is
type PredictionMode string

const (
	BestGuess        PredictionMode = "best-guess"
	MediumConfidence PredictionMode = "medium-confidence"
	HighConfidence   PredictionMode = "high-confidence"
)

// ParsePredictionMode validates a mode name
func ParsePredictionMode(s string) (PredictionMode, error) {
	m := PredictionMode(s)
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m, nil
}

// Validate checks if the mode is known
func (m PredictionMode) Validate() error {
	switch m {
	case BestGuess, MediumConfidence, HighConfidence:
		return nil
	default:
		return fmt.Errorf("invalid prediction mode: %s (must be best-guess, medium-confidence, or high-confidence)", m)
	}
}

// OverwriteReason records why the output label differs from the model label
type OverwriteReason string

const (
	OverwriteNone          OverwriteReason = "none"
	OverwriteLowConfidence OverwriteReason = "low-confidence"
	OverwriteMap           OverwriteReason = "overwrite-map"
)

// Prediction is the classification of one input.
// DL is the model's raw label, or undefined when a rule decided.
type Prediction struct {
	DL              model.ContentType
	Output          model.ContentType
	Score           float32
	OverwriteReason OverwriteReason
}

// Result pairs a path with its prediction or the error that prevented one
type Result struct {
	Path       string
	Prediction Prediction
	Err        error
}

// OK reports whether the path was classified
func (r Result) OK() bool {
	return r.Err == nil
}
