//go:build unit

package model_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/model"
	"github.com/emergingrobotics/go-magika/testutil"
)

func TestLoad_ValidDirectory(t *testing.T) {
	dir := testutil.WriteModelDir(t, testutil.TestConfig())

	m, err := model.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 32, m.Config.InputWidth())
	assert.Equal(t, len(testutil.TestLabels), m.Config.NumLabels())
	assert.Equal(t, model.DefaultInputName, m.Config.InputName)
	assert.Equal(t, model.DefaultOutputName, m.Config.OutputName)
	assert.Equal(t, filepath.Join(dir, model.ModelFile), m.Path())

	label, ok := m.Label(1)
	assert.True(t, ok)
	assert.Equal(t, "python", label)

	_, ok = m.Label(len(testutil.TestLabels))
	assert.False(t, ok)
}

func TestLoad_MissingConfigIsIOError(t *testing.T) {
	_, err := model.Load(t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, magikaerr.ErrIO)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "I/O error", err.Error())
}

func TestLoad_MissingModelFileIsIOError(t *testing.T) {
	dir := testutil.WriteModelDir(t, testutil.TestConfig())
	require.NoError(t, os.Remove(filepath.Join(dir, model.ModelFile)))

	_, err := model.Load(dir)

	assert.ErrorIs(t, err, magikaerr.ErrIO)
}

func TestLoad_MalformedConfigIsJSONError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, model.ConfigFile, []byte(`{"beg_size": 1024,`))
	testutil.WriteFile(t, dir, model.ModelFile, []byte("onnx"))

	_, err := model.Load(dir)

	require.Error(t, err)
	assert.Equal(t, "JSON error", err.Error())
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestLoad_WrongFieldTypeIsJSONError(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, model.ConfigFile, []byte(`{"beg_size": "large"}`))
	testutil.WriteFile(t, dir, model.ModelFile, []byte("onnx"))

	_, err := model.Load(dir)

	var typeErr *json.UnmarshalTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "beg_size", typeErr.Field)
}

func TestLoad_InvalidConfigIsJSONError(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.BlockSize = 0
	dir := testutil.WriteModelDir(t, cfg)

	_, err := model.Load(dir)

	assert.ErrorIs(t, err, magikaerr.ErrJSON)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "block_size", cfgErr.Field)
}

func TestLoad_ContentTypesOverride(t *testing.T) {
	dir := testutil.WriteModelDir(t, testutil.TestConfig())
	kb := map[string]model.ContentType{
		"python": {MimeType: "text/x-script.python", Group: "code", Description: "Python script", IsText: true},
		"custom": {MimeType: "application/x-custom", Group: "application", Description: "Custom"},
	}
	data, err := json.Marshal(kb)
	require.NoError(t, err)
	testutil.WriteFile(t, dir, model.ContentTypesFile, data)

	m, err := model.Load(dir)
	require.NoError(t, err)

	py := m.ContentType("python")
	assert.Equal(t, "python", py.Label)
	assert.Equal(t, "text/x-script.python", py.MimeType)
	assert.True(t, m.Types.Known("custom"))
	assert.True(t, m.Types.Known(model.LabelDirectory), "built-ins stay available")
}

func TestLoad_MalformedContentTypesIsJSONError(t *testing.T) {
	dir := testutil.WriteModelDir(t, testutil.TestConfig())
	testutil.WriteFile(t, dir, model.ContentTypesFile, []byte(`[`))

	_, err := model.Load(dir)

	assert.ErrorIs(t, err, magikaerr.ErrJSON)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *model.Config)
		field  string
	}{
		{"negative beg", func(c *model.Config) { c.BegSize = -1 }, "beg_size"},
		{"zero width", func(c *model.Config) { c.BegSize, c.EndSize = 0, 0 }, "beg_size"},
		{"beg exceeds block", func(c *model.Config) { c.BegSize = 128 }, "beg_size"},
		{"end exceeds block", func(c *model.Config) { c.EndSize = 128 }, "end_size"},
		{"byte padding", func(c *model.Config) { c.PaddingToken = 0 }, "padding_token"},
		{"min size exceeds beg", func(c *model.Config) { c.MinFileSizeForDL = 17 }, "min_file_size_for_dl"},
		{"threshold range", func(c *model.Config) { c.MediumConfidenceThreshold = 1.5 }, "medium_confidence_threshold"},
		{"per-label threshold", func(c *model.Config) { c.Thresholds["txt"] = -0.1 }, "thresholds"},
		{"empty labels", func(c *model.Config) { c.TargetLabelsSpace = nil }, "target_labels_space"},
		{"duplicate label", func(c *model.Config) { c.TargetLabelsSpace = append(c.TargetLabelsSpace, "txt") }, "target_labels_space"},
		{"overwrite source", func(c *model.Config) { c.OverwriteMap["nope"] = "txt" }, "overwrite_map"},
		{"overwrite target", func(c *model.Config) { c.OverwriteMap["zip"] = "" }, "overwrite_map"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testutil.TestConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()

			var cfgErr *model.ConfigError
			require.True(t, errors.As(err, &cfgErr), "expected *ConfigError, got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	cfg := testutil.TestConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_ThresholdFallsBackToMedium(t *testing.T) {
	cfg := testutil.TestConfig()

	assert.Equal(t, float32(0.9), cfg.Threshold("python"))
	assert.Equal(t, float32(0.5), cfg.Threshold("pdf"))
}

func TestConfig_Overwrite(t *testing.T) {
	cfg := testutil.TestConfig()

	to, ok := cfg.Overwrite("randombytes")
	assert.True(t, ok)
	assert.Equal(t, model.LabelUnknown, to)

	_, ok = cfg.Overwrite("pdf")
	assert.False(t, ok)
}

func TestNew_ValidatesConfig(t *testing.T) {
	cfg := testutil.TestConfig()
	cfg.TargetLabelsSpace = nil

	_, err := model.New(cfg)
	assert.ErrorIs(t, err, magikaerr.ErrJSON)

	m, err := model.New(testutil.TestConfig())
	require.NoError(t, err)
	assert.Equal(t, model.DefaultInputName, m.Config.InputName)
}

func TestContentTypes_LookupUnknownLabel(t *testing.T) {
	kb := model.NewContentTypes(nil)

	ct := kb.Lookup("mystery")

	assert.Equal(t, "mystery", ct.Label)
	assert.Equal(t, "unknown", ct.Group)
	assert.False(t, ct.IsText)
	assert.False(t, kb.Known("mystery"))
}

func TestContentTypes_SpecialLabels(t *testing.T) {
	kb := model.NewContentTypes(nil)

	for _, label := range []string{
		model.LabelDirectory, model.LabelSymlink, model.LabelEmpty,
		model.LabelUnknown, model.LabelText, model.LabelUndefined,
	} {
		assert.True(t, kb.Known(label), label)
	}
	assert.True(t, kb.Lookup(model.LabelText).IsText)

	labels := kb.Labels()
	assert.IsIncreasing(t, labels)
}
