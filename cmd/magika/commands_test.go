//go:build unit

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/emergingrobotics/go-magika/pkg/config"
	"github.com/emergingrobotics/go-magika/pkg/magika"
	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/model"
	"github.com/emergingrobotics/go-magika/testutil"
)

var pythonSource = []byte("import os\nprint(os.getcwd())\n")

// fakeOpener returns an opener whose runner scores everything as label
func fakeOpener(t *testing.T, label string, score float32, failWith error) sessionOpener {
	t.Helper()
	return func(cfg *config.Config, logger *slog.Logger) (*magika.Session, error) {
		m, err := model.New(testutil.TestConfig())
		if err != nil {
			return nil, err
		}
		runner := testutil.NewFakeRunner(len(testutil.TestLabels))
		idx := testutil.LabelIndex(t, label)
		runner.SetScorer(func([]int32) []float32 {
			return testutil.OneHot(len(testutil.TestLabels), idx, score)
		})
		if failWith != nil {
			runner.SetFailWith(failWith)
		}
		return magika.New(m, runner, append(cfg.Classify.Options(), magika.WithLogger(logger))...)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MAGIKA_MODEL_DIR", "MAGIKA_ORT_LIBRARY", "MAGIKA_PREDICTION_MODE",
		"MAGIKA_WORKERS", "MAGIKA_LOG_LEVEL", "MAGIKA_LOG_FORMAT", "MAGIKA_LOG_SOURCE",
	} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommandHelp(t *testing.T) {
	out, err := execute(t, newRootCommand(openSession), "--help")
	if err != nil {
		t.Errorf("help should not error: %v", err)
	}
	if !strings.Contains(out, "Usage") {
		t.Error("help output should contain Usage")
	}
	if !strings.Contains(out, "--prediction-mode") {
		t.Error("help output should list --prediction-mode")
	}
}

func TestRootCommandRequiresPath(t *testing.T) {
	clearEnv(t)
	if _, err := execute(t, newRootCommand(fakeOpener(t, "txt", 0.99, nil))); err == nil {
		t.Error("expected error without paths")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, newVersionCommand())
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "magika version "+Version) {
		t.Errorf("unexpected version output: %q", out)
	}
}

func TestIdentifyTextOutput(t *testing.T) {
	clearEnv(t)
	path := testutil.TempFile(t, "main.py", pythonSource)

	out, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, nil)), path)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}

	want := path + ": Python source (code)\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIdentifyLabelAndScore(t *testing.T) {
	clearEnv(t)
	path := testutil.TempFile(t, "main.py", pythonSource)

	out, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, nil)), "-l", "-s", path)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if want := path + ": python 95%\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIdentifyMimeType(t *testing.T) {
	clearEnv(t)
	path := testutil.TempFile(t, "doc.pdf", pythonSource)

	out, err := execute(t, newRootCommand(fakeOpener(t, "pdf", 0.99, nil)), "-i", path)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if want := path + ": application/pdf\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIdentifyJSON(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	script := testutil.WriteFile(t, dir, "main.py", pythonSource)
	missing := filepath.Join(dir, "missing")

	out, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, nil)), "--json", script, missing)
	if !errors.Is(err, errInputsFailed) {
		t.Fatalf("expected errInputsFailed, got %v", err)
	}

	var records []jsonRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, out)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	ok := records[0]
	if ok.Result.Status != "ok" || ok.Result.Value == nil {
		t.Fatalf("first record should succeed: %+v", ok)
	}
	if ok.Result.Value.Output.Label != "python" || ok.Result.Value.DL.Label != "python" {
		t.Errorf("unexpected value: %+v", ok.Result.Value)
	}

	failed := records[1]
	if failed.Result.Status != "error" || failed.Result.Kind != "io" {
		t.Errorf("second record should be an io error: %+v", failed.Result)
	}
	if !strings.HasPrefix(failed.Result.Message, "I/O error: ") {
		t.Errorf("message should start with the kind label: %q", failed.Result.Message)
	}
}

func TestIdentifyJSONL(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a", pythonSource)
	b := testutil.WriteFile(t, dir, "b", nil)

	out, err := execute(t, newRootCommand(fakeOpener(t, "txt", 0.99, nil)), "--jsonl", a, b)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), out)
	}
	var rec jsonRecord
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("bad line: %v", err)
	}
	if rec.Result.Value.Output.Label != model.LabelEmpty {
		t.Errorf("empty file label = %q", rec.Result.Value.Output.Label)
	}
	if rec.Result.Value.DL.Label != model.LabelUndefined {
		t.Errorf("rule result dl = %q, want undefined", rec.Result.Value.DL.Label)
	}
}

func TestIdentifyStdin(t *testing.T) {
	clearEnv(t)
	cmd := newRootCommand(fakeOpener(t, "python", 0.95, nil))
	cmd.SetIn(bytes.NewReader(pythonSource))

	out, err := execute(t, cmd, "-l", "-")
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if out != "-: python\n" {
		t.Errorf("output = %q", out)
	}
}

func TestIdentifyStdinTooLarge(t *testing.T) {
	clearEnv(t)
	cfgPath := testutil.TempFile(t, "magika.toml", []byte("[classify]\nmax_stdin_size = \"10B\"\n"))

	cmd := newRootCommand(fakeOpener(t, "python", 0.95, nil))
	cmd.SetIn(bytes.NewReader(pythonSource))

	out, err := execute(t, cmd, "--config", cfgPath, "-")
	if !errors.Is(err, errInputsFailed) {
		t.Fatalf("expected errInputsFailed, got %v", err)
	}
	if !strings.HasPrefix(out, "-: error: I/O error: ") {
		t.Errorf("output = %q", out)
	}
}

func TestIdentifyRecursive(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.py", pythonSource)
	testutil.WriteFile(t, dir, "nested/b.py", pythonSource)

	out, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, nil)), "-r", "-l", dir)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}

	want := filepath.Join(dir, "a.py") + ": python\n" + filepath.Join(dir, "nested", "b.py") + ": python\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIdentifyDirectoryWithoutRecursion(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	out, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, nil)), "-l", dir)
	if err != nil {
		t.Fatalf("identify failed: %v", err)
	}
	if want := dir + ": directory\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIdentifyRuntimeFailureIsFatal(t *testing.T) {
	clearEnv(t)
	path := testutil.TempFile(t, "main.py", pythonSource)

	_, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, errors.New("session run failed"))), path)
	if !errors.Is(err, magikaerr.ErrRuntime) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if got := describe(err); got != "ONNX Runtime error: session run failed" {
		t.Errorf("describe = %q", got)
	}
}

func TestInvalidPredictionModeFlag(t *testing.T) {
	clearEnv(t)
	path := testutil.TempFile(t, "main.py", pythonSource)

	_, err := execute(t, newRootCommand(fakeOpener(t, "python", 0.95, nil)), "--prediction-mode", "yolo", path)
	if err == nil || !strings.Contains(err.Error(), "prediction mode") {
		t.Errorf("expected prediction mode error, got %v", err)
	}
}

func TestLabelsCommand(t *testing.T) {
	clearEnv(t)
	dir := testutil.WriteModelDir(t, testutil.TestConfig())

	out, err := execute(t, newRootCommand(openSession), "labels", "--model-dir", dir)
	if err != nil {
		t.Fatalf("labels failed: %v", err)
	}
	for _, label := range testutil.TestLabels {
		if !strings.Contains(out, label) {
			t.Errorf("labels output missing %q", label)
		}
	}
}

func TestLabelsCommandMissingModel(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, newRootCommand(openSession), "labels", "--model-dir", filepath.Join(t.TempDir(), "none"))
	if !errors.Is(err, magikaerr.ErrIO) {
		t.Errorf("expected I/O error, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist payload, got %v", err)
	}
}
