package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/emergingrobotics/go-magika/pkg/tensor"
)

// Scorer produces one score row for one input row
type Scorer func(row []int32) []float32

// FakeRunner implements a scriptable inference runner for testing
type FakeRunner struct {
	mu          sync.Mutex
	numLabels   int
	scorer      Scorer
	failWith    error
	panicWith   any
	outputShape tensor.Shape
	calls       int
	rows        int
	batches     []int
	closed      bool
}

// NewFakeRunner creates a runner that scores every row as label 0 with 0.99
func NewFakeRunner(numLabels int) *FakeRunner {
	return &FakeRunner{
		numLabels: numLabels,
		scorer: func([]int32) []float32 {
			return OneHot(numLabels, 0, 0.99)
		},
	}
}

// Run simulates a model execution
func (r *FakeRunner) Run(ctx context.Context, input *tensor.Tensor[int32]) (*tensor.Tensor[float32], error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("runner closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.panicWith != nil {
		v := r.panicWith
		r.panicWith = nil
		panic(v)
	}
	if r.failWith != nil {
		return nil, r.failWith
	}

	rows, err := input.Rows()
	if err != nil {
		return nil, err
	}

	r.calls++
	r.rows += len(rows)
	r.batches = append(r.batches, len(rows))

	if r.outputShape != nil {
		return tensor.Zeros[float32](r.outputShape)
	}

	out := make([][]float32, len(rows))
	for i, row := range rows {
		out[i] = r.scorer(row)
	}
	return tensor.FromRows(out, r.numLabels)
}

// Close marks the runner closed
func (r *FakeRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// SetScorer replaces the per-row scoring function
func (r *FakeRunner) SetScorer(s Scorer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scorer = s
}

// SetFailWith makes Run() return err
func (r *FakeRunner) SetFailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// SetPanicOnce makes the next Run() panic with v
func (r *FakeRunner) SetPanicOnce(v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panicWith = v
}

// SetOutputShape makes Run() return a zero tensor of the given shape
func (r *FakeRunner) SetOutputShape(s tensor.Shape) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputShape = s
}

// Calls returns number of successful Run() calls
func (r *FakeRunner) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// Rows returns total rows scored
func (r *FakeRunner) Rows() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows
}

// Batches returns the row count of each Run() call
func (r *FakeRunner) Batches() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.batches...)
}

// Closed reports whether Close() was called
func (r *FakeRunner) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// OneHot returns a score row with score at idx and the remainder spread evenly
func OneHot(numLabels, idx int, score float32) []float32 {
	row := make([]float32, numLabels)
	if numLabels > 1 {
		rest := (1 - score) / float32(numLabels-1)
		for i := range row {
			row[i] = rest
		}
	}
	row[idx] = score
	return row
}
