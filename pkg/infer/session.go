// Package infer runs batched classifier inference over a pluggable runtime.
package infer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/emergingrobotics/go-magika/pkg/guard"
	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/tensor"
)

// Default session settings
const (
	DefaultBatchSize = 256
	DefaultTimeout   = 30 * time.Second
)

// Runner executes a model on one batch of input rows.
//
// Implementations may return plain errors; the session converts them.
type Runner interface {
	Run(ctx context.Context, input *tensor.Tensor[int32]) (*tensor.Tensor[float32], error)
	Close() error
}

// Stats holds session statistics
type Stats struct {
	InferenceCount int64
	BatchCount     int64
	TotalLatency   time.Duration
	MinLatency     time.Duration
	MaxLatency     time.Duration
}

// AverageLatency returns the mean latency per batch
func (s Stats) AverageLatency() time.Duration {
	if s.BatchCount == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.BatchCount)
}

func (s *Stats) record(rows int, latency time.Duration) {
	s.InferenceCount += int64(rows)
	s.BatchCount++
	s.TotalLatency += latency
	if s.MinLatency == 0 || latency < s.MinLatency {
		s.MinLatency = latency
	}
	if latency > s.MaxLatency {
		s.MaxLatency = latency
	}
}

type sessionState struct {
	stats Stats
}

// Session represents an active inference session
type Session struct {
	runner    Runner
	info      ModelInfo
	state     *guard.Mutex[sessionState]
	timeout   time.Duration
	batchSize int
	logger    *slog.Logger
	closed    atomic.Bool
}

// SessionOption is a function that configures a Session
type SessionOption func(*Session)

// WithTimeout sets the per-batch inference timeout
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = d
	}
}

// WithBatchSize sets the maximum rows per runner call
func WithBatchSize(size int) SessionOption {
	return func(s *Session) {
		s.batchSize = size
	}
}

// WithLogger sets the session logger
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a session running info's model through runner
func NewSession(runner Runner, info ModelInfo, opts ...SessionOption) (*Session, error) {
	if err := info.Validate(); err != nil {
		return nil, magikaerr.From(err, magikaerr.KindRuntime)
	}

	s := &Session{
		runner:    runner,
		info:      info,
		state:     guard.New(sessionState{}),
		timeout:   DefaultTimeout,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}

	return s, nil
}

// Info returns the model's tensor descriptions
func (s *Session) Info() ModelInfo {
	return s.info
}

// Infer runs inference on rows and returns one score row per input row
func (s *Session) Infer(ctx context.Context, rows [][]int32) ([][]float32, error) {
	if s.closed.Load() {
		return nil, magikaerr.Runtime(ErrSessionClosed)
	}

	results := make([][]float32, 0, len(rows))
	for start := 0; start < len(rows); start += s.batchSize {
		end := min(start+s.batchSize, len(rows))

		scores, err := s.inferBatch(ctx, rows[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, scores...)
	}

	return results, nil
}

func (s *Session) inferBatch(ctx context.Context, rows [][]int32) ([][]float32, error) {
	input, err := tensor.FromRows(rows, s.info.Input.Width())
	if err != nil {
		return nil, magikaerr.Shape(err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var output *tensor.Tensor[float32]
	err = s.state.Do(func(st *sessionState) error {
		began := time.Now()
		out, err := s.runner.Run(ctx, input)
		if err != nil {
			return err
		}
		latency := time.Since(began)
		st.stats.record(len(rows), latency)
		output = out

		s.logger.Debug("inference batch", "rows", len(rows), "latency", latency)
		return nil
	})
	if err != nil {
		return nil, s.runError(err)
	}

	expected := s.info.Output.Batched(len(rows))
	if output == nil || !output.Shape().Equal(expected) {
		got := tensor.Shape{}
		if output != nil {
			got = output.Shape()
		}
		return nil, magikaerr.Shape(&tensor.ShapeError{Op: "infer output", Expected: expected, Got: got})
	}

	scores, err := output.Rows()
	if err != nil {
		return nil, magikaerr.Shape(err)
	}
	return scores, nil
}

func (s *Session) runError(err error) error {
	var poison *guard.PoisonError
	if errors.As(err, &poison) {
		if poison.Panic != nil {
			s.logger.Error("runner panicked, session poisoned", "panic", fmt.Sprint(poison.Panic))
		}
		return magikaerr.Lock(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return magikaerr.Runtime(fmt.Errorf("%w: %w", ErrInferenceTimeout, err))
	}
	return magikaerr.From(err, magikaerr.KindRuntime)
}

// Stats returns session statistics
func (s *Session) Stats() (Stats, error) {
	var stats Stats
	err := s.state.Do(func(st *sessionState) error {
		stats = st.stats
		return nil
	})
	if err != nil {
		return Stats{}, magikaerr.Lock(err)
	}
	return stats, nil
}

// Poisoned reports whether a runner panic left the session unusable
func (s *Session) Poisoned() bool {
	return s.state.IsPoisoned()
}

// Reset clears statistics and recovers a poisoned session
func (s *Session) Reset() error {
	if s.closed.Load() {
		return magikaerr.Runtime(ErrSessionClosed)
	}
	s.state.Reset(sessionState{})
	return nil
}

// Warmup runs n padding-only batches to warm up the runtime
func (s *Session) Warmup(ctx context.Context, n int, padding int32) error {
	row := make([]int32, s.info.Input.Width())
	for i := range row {
		row[i] = padding
	}
	rows := [][]int32{row}

	for i := 0; i < n; i++ {
		if _, err := s.Infer(ctx, rows); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the session and its runner
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return magikaerr.From(s.runner.Close(), magikaerr.KindRuntime)
}
