//go:build integration || benchmark

package integration

import (
	"testing"

	"github.com/emergingrobotics/go-magika/pkg/infer"
	"github.com/emergingrobotics/go-magika/pkg/infer/ort"
	"github.com/emergingrobotics/go-magika/pkg/magika"
	"github.com/emergingrobotics/go-magika/pkg/model"
	"github.com/emergingrobotics/go-magika/testutil"
)

// openClassifier loads the configured model on the real runtime
func openClassifier(t testing.TB, opts ...magika.Option) *magika.Session {
	t.Helper()

	dir := testutil.SkipIfNoModel(t)
	library := testutil.SkipIfNoRuntime(t)

	m, err := model.Load(dir)
	if err != nil {
		t.Fatalf("Failed to load model: %v", err)
	}

	runner, err := ort.Open(m.Path(), ort.Options{
		LibraryPath: library,
		Info:        infer.InfoFromConfig(m.Config),
	})
	if err != nil {
		t.Fatalf("Failed to open runtime: %v", err)
	}

	s, err := magika.New(m, runner, opts...)
	if err != nil {
		runner.Close()
		t.Fatalf("Failed to create session: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}
