//go:build benchmark

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/emergingrobotics/go-magika/testutil"
)

// BenchmarkIdentifyLatency measures single-input classification time
func BenchmarkIdentifyLatency(b *testing.B) {
	s := openClassifier(b)
	ctx := context.Background()
	content := testutil.MakeRandomBytes(64 * 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.IdentifyBytes(ctx, content); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkIdentifyPaths measures batched throughput in files per second
func BenchmarkIdentifyPaths(b *testing.B) {
	s := openClassifier(b)
	ctx := context.Background()

	dir := b.TempDir()
	paths := make([]string, 64)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("sample%02d", i))
		if err := os.WriteFile(paths[i], testutil.MakeRandomBytes(8192+i), 0644); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.IdentifyPaths(ctx, paths); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(b.N*len(paths))/b.Elapsed().Seconds(), "files/s")
}

// BenchmarkConcurrentIdentify measures parallel classification throughput
func BenchmarkConcurrentIdentify(b *testing.B) {
	s := openClassifier(b)
	ctx := context.Background()
	content := testutil.MakeRandomBytes(16 * 1024)

	b.SetParallelism(4)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.IdentifyBytes(ctx, content); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
