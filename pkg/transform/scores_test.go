//go:build unit

package transform

import "testing"

func TestArgmax(t *testing.T) {
	best := Argmax([]float32{0.1, 0.7, 0.2})

	if best.Index != 1 {
		t.Errorf("Index = %d, expected 1", best.Index)
	}
	if best.Value != 0.7 {
		t.Errorf("Value = %f, expected 0.7", best.Value)
	}
}

func TestArgmaxTiesPickFirst(t *testing.T) {
	best := Argmax([]float32{0.4, 0.4, 0.2})

	if best.Index != 0 {
		t.Errorf("Index = %d, expected 0", best.Index)
	}
}

func TestArgmaxEmpty(t *testing.T) {
	best := Argmax(nil)

	if best.Index != -1 {
		t.Errorf("Index = %d, expected -1", best.Index)
	}
	if best.Value != 0 {
		t.Errorf("Value = %f, expected 0", best.Value)
	}
}

func TestSortByScore(t *testing.T) {
	sorted := SortByScore([]float32{0.5, 0.9, 0.7})

	if sorted[0].Index != 1 {
		t.Error("first entry should have highest score")
	}
	if sorted[2].Index != 0 {
		t.Error("last entry should have lowest score")
	}
}

func TestTopK(t *testing.T) {
	scores := []float32{0.05, 0.6, 0.1, 0.25}

	top := TopK(scores, 2)

	if len(top) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(top))
	}
	if top[0].Index != 1 || top[1].Index != 3 {
		t.Errorf("unexpected order: %+v", top)
	}

	if len(TopK(scores, 10)) != 4 {
		t.Error("k larger than input should return every entry")
	}
	if len(TopK(scores, -1)) != 0 {
		t.Error("negative k should return nothing")
	}
}

func TestFilterByScore(t *testing.T) {
	filtered := FilterByScore([]float32{0.9, 0.5, 0.3, 0.8}, 0.6)

	if len(filtered) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(filtered))
	}
	for _, s := range filtered {
		if s.Value < 0.6 {
			t.Errorf("entry with score %f should be filtered", s.Value)
		}
	}
}

func BenchmarkArgmax(b *testing.B) {
	scores := make([]float32, 214)
	for i := range scores {
		scores[i] = float32(i%17) / 17
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Argmax(scores)
	}
}
