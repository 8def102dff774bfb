package transform

import (
	"math"
	"sort"
)

// Score pairs a label index with the model's probability for it
type Score struct {
	Index int
	Value float32
}

// Argmax returns the highest-scoring entry. Ties resolve to the lowest index.
// An empty input returns Index -1.
func Argmax(scores []float32) Score {
	best := Score{Index: -1, Value: float32(math.Inf(-1))}
	for i, v := range scores {
		if v > best.Value {
			best = Score{Index: i, Value: v}
		}
	}
	if best.Index < 0 {
		best.Value = 0
	}
	return best
}

// SortByScore returns scores in descending order, stable on index
func SortByScore(scores []float32) []Score {
	sorted := make([]Score, len(scores))
	for i, v := range scores {
		sorted[i] = Score{Index: i, Value: v}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	return sorted
}

// TopK returns the k highest scores
func TopK(scores []float32, k int) []Score {
	sorted := SortByScore(scores)
	if k < 0 {
		k = 0
	}
	if k < len(sorted) {
		sorted = sorted[:k]
	}
	return sorted
}

// FilterByScore keeps entries at or above threshold, highest first
func FilterByScore(scores []float32, threshold float32) []Score {
	var filtered []Score
	for _, s := range SortByScore(scores) {
		if s.Value >= threshold {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
