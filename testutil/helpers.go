package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/emergingrobotics/go-magika/pkg/model"
)

// Environment variables naming real assets for integration tests
const (
	EnvModelDir   = "MAGIKA_MODEL_DIR"
	EnvORTLibrary = "MAGIKA_ORT_LIBRARY"
)

// TestLabels is the label space of TestConfig
var TestLabels = []string{"txt", "python", "json", "pdf", "zip", "randombytes", "randomtxt"}

// TestConfig returns a small model config suitable for unit tests
func TestConfig() model.Config {
	return model.Config{
		BegSize:                   16,
		MidSize:                   0,
		EndSize:                   16,
		BlockSize:                 64,
		PaddingToken:              256,
		MinFileSizeForDL:          8,
		MediumConfidenceThreshold: 0.5,
		TargetLabelsSpace:         append([]string(nil), TestLabels...),
		Thresholds:                map[string]float32{"python": 0.9},
		OverwriteMap: map[string]string{
			"randombytes": model.LabelUnknown,
			"randomtxt":   model.LabelText,
		},
		VersionMajor: 3,
	}
}

// LabelIndex returns the position of label in TestLabels
func LabelIndex(t *testing.T, label string) int {
	t.Helper()
	for i, l := range TestLabels {
		if l == label {
			return i
		}
	}
	t.Fatalf("label %q not in test label space", label)
	return -1
}

// WriteModelDir writes cfg and a placeholder model.onnx into a temp directory
func WriteModelDir(t *testing.T, cfg model.Config) string {
	t.Helper()
	dir := t.TempDir()

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}
	WriteFile(t, dir, model.ConfigFile, data)
	WriteFile(t, dir, model.ModelFile, []byte("onnx"))
	return dir
}

// WriteFile writes content to dir/name and returns the path
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

// TempFile creates a temporary file with given content
func TempFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), name, content)
}

// MakeRandomBytes creates deterministic binary test data
func MakeRandomBytes(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte((i*17 + 11) % 256)
	}
	return data
}

// SkipIfNoModel skips test unless a real model directory is configured
func SkipIfNoModel(t testing.TB) string {
	t.Helper()

	candidates := []string{
		os.Getenv(EnvModelDir),
		"../models/standard_v3_3",
		"testdata/model",
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, model.ModelFile)); err == nil {
			return dir
		}
	}
	t.Skip("No Magika model directory available")
	return ""
}

// SkipIfNoRuntime skips test unless the ONNX Runtime shared library is available
func SkipIfNoRuntime(t testing.TB) string {
	t.Helper()

	path := os.Getenv(EnvORTLibrary)
	if path == "" {
		t.Skip("MAGIKA_ORT_LIBRARY not set")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("ONNX Runtime library not found: %s", path)
	}
	return path
}
