// Package magika classifies content types from file bytes.
//
// A Session answers cheap cases with rules (directories, symlinks, empty
// and very short files) and sends everything else to the model in
// batches. Every error it returns is a *magikaerr.Error.
package magika

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/emergingrobotics/go-magika/pkg/features"
	"github.com/emergingrobotics/go-magika/pkg/infer"
	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/model"
	"github.com/emergingrobotics/go-magika/pkg/tensor"
	"github.com/emergingrobotics/go-magika/pkg/transform"
)

// Session is a ready-to-use classifier
type Session struct {
	model       *model.Model
	infer       *infer.Session
	extractor   *features.Extractor
	mode        PredictionMode
	workers     int
	dereference bool
	logger      *slog.Logger
}

type options struct {
	mode        PredictionMode
	batchSize   int
	workers     int
	timeout     time.Duration
	dereference bool
	logger      *slog.Logger
}

// Option configures a Session
type Option func(*options)

// WithPredictionMode sets the confidence policy
func WithPredictionMode(m PredictionMode) Option {
	return func(o *options) { o.mode = m }
}

// WithBatchSize sets the maximum rows per model call
func WithBatchSize(n int) Option {
	return func(o *options) { o.batchSize = n }
}

// WithWorkers bounds concurrent file reads in IdentifyPaths
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithTimeout sets the per-batch inference timeout
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDereference follows symlinks instead of reporting them
func WithDereference(follow bool) Option {
	return func(o *options) { o.dereference = follow }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a classifier for m that scores through runner.
// The session owns runner and closes it on Close.
func New(m *model.Model, runner infer.Runner, opts ...Option) (*Session, error) {
	o := options{
		mode:        HighConfidence,
		batchSize:   infer.DefaultBatchSize,
		workers:     runtime.NumCPU(),
		timeout:     infer.DefaultTimeout,
		dereference: true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.mode.Validate(); err != nil {
		o.logger.Warn("unknown prediction mode, using high-confidence", "mode", string(o.mode))
		o.mode = HighConfidence
	}
	if o.workers <= 0 {
		o.workers = 1
	}

	info := infer.InfoFromConfig(m.Config)
	extractor := features.NewExtractor(m.Config)
	if info.Input.Width() != extractor.Width() {
		return nil, magikaerr.Shape(&tensor.ShapeError{
			Op:       "model input",
			Expected: tensor.NewShape(infer.BatchDim, int64(extractor.Width())),
			Got:      info.Input.Shape,
		})
	}

	inf, err := infer.NewSession(runner, info,
		infer.WithBatchSize(o.batchSize),
		infer.WithTimeout(o.timeout),
		infer.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}

	return &Session{
		model:       m,
		infer:       inf,
		extractor:   extractor,
		mode:        o.mode,
		workers:     o.workers,
		dereference: o.dereference,
		logger:      o.logger,
	}, nil
}

// Model returns the loaded model
func (s *Session) Model() *model.Model {
	return s.model
}

// Mode returns the active prediction mode
func (s *Session) Mode() PredictionMode {
	return s.mode
}

// IdentifyBytes classifies in-memory content
func (s *Session) IdentifyBytes(ctx context.Context, content []byte) (Prediction, error) {
	return s.identifyFeatures(ctx, s.extractor.FromBytes(content))
}

// IdentifyReader classifies size bytes readable from r
func (s *Session) IdentifyReader(ctx context.Context, r io.ReaderAt, size int64) (Prediction, error) {
	f, err := s.extractor.FromReaderAt(r, size)
	if err != nil {
		return Prediction{}, err
	}
	return s.identifyFeatures(ctx, f)
}

// IdentifyFile classifies the file at path
func (s *Session) IdentifyFile(ctx context.Context, path string) (Prediction, error) {
	results, err := s.IdentifyPaths(ctx, []string{path})
	if err != nil {
		return Prediction{}, err
	}
	return results[0].Prediction, results[0].Err
}

func (s *Session) identifyFeatures(ctx context.Context, f features.Features) (Prediction, error) {
	if p, ok := s.rule(f); ok {
		return p, nil
	}
	scores, err := s.infer.Infer(ctx, [][]int32{f.Flatten()})
	if err != nil {
		return Prediction{}, err
	}
	return s.predict(scores[0]), nil
}

// IdentifyPaths classifies every path. Per-path I/O failures are reported
// in Result.Err; a failure of the model itself is returned as the error.
func (s *Session) IdentifyPaths(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	pending := make([]*features.Features, len(paths))

	var (
		mu    sync.Mutex
		retry []int
		g     errgroup.Group
	)
	g.SetLimit(s.workers)

	for i, path := range paths {
		i, path := i, path
		results[i].Path = path
		g.Go(func() error {
			p, f, err := s.inspect(path)
			if err != nil && temporary(err) {
				mu.Lock()
				retry = append(retry, i)
				mu.Unlock()
				return nil
			}
			results[i].Prediction, pending[i], results[i].Err = p, f, err
			return nil
		})
	}
	// Workers record failures in results and always return nil.
	g.Wait()

	// Descriptor exhaustion clears once the other workers are done.
	for _, i := range retry {
		results[i].Prediction, pending[i], results[i].Err = s.inspect(paths[i])
	}

	var (
		index []int
		rows  [][]int32
	)
	for i, f := range pending {
		if f != nil {
			index = append(index, i)
			rows = append(rows, f.Flatten())
		}
	}

	if len(rows) > 0 {
		scores, err := s.infer.Infer(ctx, rows)
		if err != nil {
			s.logger.Error("inference failed", "paths", len(rows), "err", err)
			return nil, err
		}
		for j, i := range index {
			results[i].Prediction = s.predict(scores[j])
		}
	}

	for _, r := range results {
		if r.Err != nil {
			s.logger.Debug("identify failed", "path", r.Path, "err", r.Err)
		}
	}
	s.logger.Debug("identified paths", "paths", len(paths), "model_rows", len(rows), "retried", len(retry))

	return results, nil
}

// inspect returns either a rule-based prediction or features for the model
func (s *Session) inspect(path string) (Prediction, *features.Features, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Prediction{}, nil, magikaerr.IO(err)
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		if !s.dereference {
			return s.ruled(model.LabelSymlink), nil, nil
		}
		if info, err = os.Stat(path); err != nil {
			return Prediction{}, nil, magikaerr.IO(err)
		}
	}

	switch {
	case info.IsDir():
		return s.ruled(model.LabelDirectory), nil, nil
	case !info.Mode().IsRegular():
		return s.ruled(model.LabelUnknown), nil, nil
	case info.Size() == 0:
		return s.ruled(model.LabelEmpty), nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return Prediction{}, nil, magikaerr.IO(err)
	}
	defer file.Close()

	f, err := s.extractor.FromReaderAt(file, info.Size())
	if err != nil {
		return Prediction{}, nil, err
	}
	if p, ok := s.rule(f); ok {
		return p, nil, nil
	}
	return Prediction{}, &f, nil
}

func (s *Session) rule(f features.Features) (Prediction, bool) {
	switch {
	case f.Size == 0:
		return s.ruled(model.LabelEmpty), true
	case f.Short(s.model.Config.MinFileSizeForDL):
		if utf8.Valid(f.Head) {
			return s.ruled(model.LabelText), true
		}
		return s.ruled(model.LabelUnknown), true
	}
	return Prediction{}, false
}

func (s *Session) ruled(label string) Prediction {
	return Prediction{
		DL:              s.model.ContentType(model.LabelUndefined),
		Output:          s.model.ContentType(label),
		Score:           1.0,
		OverwriteReason: OverwriteNone,
	}
}

func (s *Session) predict(scores []float32) Prediction {
	cfg := &s.model.Config
	best := transform.Argmax(scores)

	dl, ok := s.model.Label(best.Index)
	if !ok {
		dl = model.LabelUnknown
	}

	output, reason := dl, OverwriteNone
	if to, ok := cfg.Overwrite(dl); ok {
		output, reason = to, OverwriteMap
	}

	var accepted bool
	switch s.mode {
	case BestGuess:
		accepted = true
	case MediumConfidence:
		accepted = best.Value >= cfg.MediumConfidenceThreshold
	case HighConfidence:
		accepted = best.Value >= cfg.Threshold(dl)
	}

	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logDecision(scores, dl, output, accepted)
	}

	dlType := s.model.ContentType(dl)
	if !accepted {
		reason = OverwriteLowConfidence
		if dlType.IsText {
			output = model.LabelText
		} else {
			output = model.LabelUnknown
		}
	}

	return Prediction{
		DL:              dlType,
		Output:          s.model.ContentType(output),
		Score:           best.Value,
		OverwriteReason: reason,
	}
}

func (s *Session) logDecision(scores []float32, dl, output string, accepted bool) {
	top := transform.TopK(scores, 3)
	candidates := make([]string, 0, len(top))
	for _, sc := range top {
		label, _ := s.model.Label(sc.Index)
		candidates = append(candidates, fmt.Sprintf("%s=%.3f", label, sc.Value))
	}
	s.logger.Debug("model decision",
		"dl", dl,
		"output", output,
		"accepted", accepted,
		"top", candidates,
		"above_medium", len(transform.FilterByScore(scores, s.model.Config.MediumConfidenceThreshold)),
	)
}

func temporary(err error) bool {
	var e *magikaerr.Error
	return errors.As(err, &e) && e.Temporary()
}

// Stats returns inference statistics
func (s *Session) Stats() (infer.Stats, error) {
	return s.infer.Stats()
}

// Reset recovers from a poisoned inference session
func (s *Session) Reset() error {
	return s.infer.Reset()
}

// Close releases the inference session and its runner
func (s *Session) Close() error {
	return s.infer.Close()
}
