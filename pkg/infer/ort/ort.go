// Package ort implements infer.Runner on the ONNX Runtime through
// github.com/yalue/onnxruntime_go. The runtime shared library is loaded
// once per process and released when the last runner closes.
package ort

import (
	"context"
	"errors"
	"fmt"
	"sync"

	onnx "github.com/yalue/onnxruntime_go"

	"github.com/emergingrobotics/go-magika/pkg/guard"
	"github.com/emergingrobotics/go-magika/pkg/infer"
	"github.com/emergingrobotics/go-magika/pkg/magikaerr"
	"github.com/emergingrobotics/go-magika/pkg/tensor"
)

// ErrRunnerClosed is returned by Run after Close
var ErrRunnerClosed = errors.New("ort runner is closed")

// Options configures a Runner
type Options struct {
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// binding's platform default.
	LibraryPath string
	// IntraOpThreads bounds ORT's intra-op thread pool. Zero keeps ORT's default.
	IntraOpThreads int
	// Info names and sizes the model's input and output tensors.
	Info infer.ModelInfo
}

type environment struct {
	refs    int
	library string
}

var env = guard.New(environment{})

func acquire(library string) error {
	err := env.Do(func(e *environment) error {
		if e.refs > 0 {
			if library != "" && library != e.library {
				return fmt.Errorf("onnxruntime already initialised from %q", e.library)
			}
			e.refs++
			return nil
		}
		if library != "" {
			onnx.SetSharedLibraryPath(library)
		}
		if err := onnx.InitializeEnvironment(); err != nil {
			return err
		}
		e.refs = 1
		e.library = library
		return nil
	})
	return magikaerr.From(err, magikaerr.KindRuntime)
}

// release drops one environment reference. The error is unwrapped so
// callers can join it with their own failure before converting.
func release() error {
	err := env.Do(func(e *environment) error {
		if e.refs == 0 {
			return nil
		}
		e.refs--
		if e.refs > 0 {
			return nil
		}
		e.library = ""
		return onnx.DestroyEnvironment()
	})
	return err
}

// compile-time guarantee that *Runner implements infer.Runner
var _ infer.Runner = (*Runner)(nil)

// Runner executes an ONNX model
type Runner struct {
	mu      sync.Mutex
	session *onnx.DynamicAdvancedSession
	info    infer.ModelInfo
	closed  bool
}

// Open loads the model at modelPath
func Open(modelPath string, opts Options) (*Runner, error) {
	if err := opts.Info.Validate(); err != nil {
		return nil, magikaerr.From(err, magikaerr.KindRuntime)
	}
	if err := acquire(opts.LibraryPath); err != nil {
		return nil, err
	}

	session, err := newSession(modelPath, opts)
	if err != nil {
		return nil, magikaerr.Runtime(errors.Join(err, release()))
	}

	return &Runner{session: session, info: opts.Info}, nil
}

func newSession(modelPath string, opts Options) (*onnx.DynamicAdvancedSession, error) {
	sessionOpts, err := onnx.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessionOpts.Destroy()

	if opts.IntraOpThreads > 0 {
		if err := sessionOpts.SetIntraOpNumThreads(opts.IntraOpThreads); err != nil {
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}

	session, err := onnx.NewDynamicAdvancedSession(modelPath,
		[]string{opts.Info.Input.Name}, []string{opts.Info.Output.Name}, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", modelPath, err)
	}
	return session, nil
}

// Run executes the model on one batch
func (r *Runner) Run(ctx context.Context, input *tensor.Tensor[int32]) (*tensor.Tensor[float32], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shape := input.Shape()
	want := r.info.Input.Width()
	if shape.Rank() != 2 || int(shape[1]) != want {
		return nil, magikaerr.Shape(&tensor.ShapeError{
			Op:       "ort input",
			Expected: r.info.Input.Shape.Clone(),
			Got:      shape,
		})
	}
	batch := int(shape[0])

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, magikaerr.Runtime(ErrRunnerClosed)
	}

	in, err := onnx.NewTensor(onnx.Shape(shape), input.Data())
	if err != nil {
		return nil, magikaerr.Runtime(fmt.Errorf("input tensor: %w", err))
	}
	defer in.Destroy()

	outShape := r.info.Output.Batched(batch)
	out, err := onnx.NewEmptyTensor[float32](onnx.Shape(outShape))
	if err != nil {
		return nil, magikaerr.Runtime(fmt.Errorf("output tensor: %w", err))
	}
	defer out.Destroy()

	if err := r.session.Run([]onnx.Value{in}, []onnx.Value{out}); err != nil {
		return nil, magikaerr.Runtime(err)
	}

	// The native buffer is freed by Destroy, so copy it out first.
	data := append([]float32(nil), out.GetData()...)
	result, err := tensor.FromSlice(outShape, data)
	if err != nil {
		return nil, magikaerr.Shape(err)
	}
	return result, nil
}

// Close destroys the session and releases the runtime environment
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if err := r.session.Destroy(); err != nil {
		errs = append(errs, err)
	}
	if err := release(); err != nil {
		errs = append(errs, err)
	}
	return magikaerr.From(errors.Join(errs...), magikaerr.KindRuntime)
}
