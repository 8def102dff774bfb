package infer

import (
	"github.com/emergingrobotics/go-magika/pkg/model"
	"github.com/emergingrobotics/go-magika/pkg/tensor"
)

// DataType represents the element type of a tensor
type DataType int

const (
	DataTypeInt32 DataType = iota
	DataTypeFloat32
)

// String returns the ONNX name of the data type
func (d DataType) String() string {
	switch d {
	case DataTypeInt32:
		return "int32"
	case DataTypeFloat32:
		return "float32"
	}
	return "unknown"
}

// ElementSize returns the size in bytes of one element
func (d DataType) ElementSize() int {
	switch d {
	case DataTypeInt32, DataTypeFloat32:
		return 4
	}
	return 0
}

// BatchDim marks the dynamic batch dimension in a declared shape
const BatchDim = -1

// TensorInfo describes a named model input or output.
// Shape is [BatchDim, width].
type TensorInfo struct {
	Name     string
	Shape    tensor.Shape
	DataType DataType
}

// Width returns the per-row element count
func (t TensorInfo) Width() int {
	if len(t.Shape) != 2 {
		return 0
	}
	return int(t.Shape[1])
}

// Batched returns the concrete shape for a batch of n rows
func (t TensorInfo) Batched(n int) tensor.Shape {
	return tensor.NewShape(int64(n), int64(t.Width()))
}

// ByteSize returns the buffer size in bytes for a batch of n rows
func (t TensorInfo) ByteSize(n int) int {
	return n * t.Width() * t.DataType.ElementSize()
}

func (t TensorInfo) validate(op string, missing error) error {
	if t.Name == "" {
		return missing
	}
	if len(t.Shape) != 2 || t.Shape[0] != BatchDim || t.Shape[1] <= 0 {
		return &tensor.ShapeError{
			Op:       op,
			Expected: tensor.NewShape(BatchDim, 1),
			Got:      t.Shape.Clone(),
		}
	}
	if t.DataType.ElementSize() == 0 {
		return ErrInvalidDataType
	}
	return nil
}

// ModelInfo describes the single input and output of a classifier model
type ModelInfo struct {
	Input  TensorInfo
	Output TensorInfo
}

// InfoFromConfig derives tensor descriptions from a model config
func InfoFromConfig(cfg model.Config) ModelInfo {
	input, output := cfg.InputName, cfg.OutputName
	if input == "" {
		input = model.DefaultInputName
	}
	if output == "" {
		output = model.DefaultOutputName
	}
	return ModelInfo{
		Input: TensorInfo{
			Name:     input,
			Shape:    tensor.NewShape(BatchDim, int64(cfg.InputWidth())),
			DataType: DataTypeInt32,
		},
		Output: TensorInfo{
			Name:     output,
			Shape:    tensor.NewShape(BatchDim, int64(cfg.NumLabels())),
			DataType: DataTypeFloat32,
		},
	}
}

// Validate checks that the model info is usable
func (m ModelInfo) Validate() error {
	if err := m.Input.validate("input info", ErrNoInput); err != nil {
		return err
	}
	return m.Output.validate("output info", ErrNoOutput)
}
