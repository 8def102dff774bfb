// Package model loads a Magika model directory: the ONNX graph path, its
// config.min.json and an optional content type knowledge base.
package model

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
)

// File names inside a model directory
const (
	ConfigFile       = "config.min.json"
	ModelFile        = "model.onnx"
	ContentTypesFile = "content_types_kb.min.json"
)

// Model is a loaded model directory
type Model struct {
	Dir    string
	Config Config
	Types  *ContentTypes
}

// Load reads the model directory at dir
func Load(dir string) (*Model, error) {
	m := &Model{Dir: dir}

	if err := readJSON(filepath.Join(dir, ConfigFile), &m.Config); err != nil {
		return nil, err
	}
	m.Config.loadDefaults()
	if err := m.Config.Validate(); err != nil {
		return nil, magikaerr.JSON(err)
	}

	if _, err := os.Stat(m.Path()); err != nil {
		return nil, magikaerr.IO(err)
	}

	var overrides map[string]ContentType
	err := readJSON(filepath.Join(dir, ContentTypesFile), &overrides)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	m.Types = NewContentTypes(overrides)

	return m, nil
}

// New builds a model from an in-memory config, using the built-in
// knowledge base. The config is validated.
func New(cfg Config) (*Model, error) {
	cfg.loadDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, magikaerr.JSON(err)
	}
	return &Model{Config: cfg, Types: NewContentTypes(nil)}, nil
}

// Path returns the ONNX graph path
func (m *Model) Path() string {
	return filepath.Join(m.Dir, ModelFile)
}

// Label returns the label at index i of the target label space
func (m *Model) Label(i int) (string, bool) {
	if i < 0 || i >= len(m.Config.TargetLabelsSpace) {
		return "", false
	}
	return m.Config.TargetLabelsSpace[i], true
}

// ContentType looks up label in the model's knowledge base
func (m *Model) ContentType(label string) ContentType {
	return m.Types.Lookup(label)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return magikaerr.IO(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return magikaerr.JSON(err)
	}
	return nil
}
