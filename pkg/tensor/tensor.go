package tensor

// Element is the set of element types exchanged with the inference runtime
type Element interface {
	~int32 | ~float32
}

// Tensor is a dense, row-major array with a fixed shape
type Tensor[T Element] struct {
	shape Shape
	data  []T
}

// FromSlice wraps data in a tensor of the given shape without copying
func FromSlice[T Element](shape Shape, data []T) (*Tensor[T], error) {
	if !shape.Valid() {
		return nil, &ShapeError{Op: "from slice", Expected: shape.Clone(), Elements: -1}
	}
	if len(data) != shape.Size() {
		return nil, &ShapeError{Op: "from slice", Expected: shape.Clone(), Elements: len(data)}
	}
	return &Tensor[T]{shape: shape.Clone(), data: data}, nil
}

// Zeros allocates a zero-filled tensor
func Zeros[T Element](shape Shape) (*Tensor[T], error) {
	if !shape.Valid() {
		return nil, &ShapeError{Op: "zeros", Expected: shape.Clone(), Elements: -1}
	}
	return &Tensor[T]{shape: shape.Clone(), data: make([]T, shape.Size())}, nil
}

// FromRows stacks equal-width rows into a [len(rows), width] tensor
func FromRows[T Element](rows [][]T, width int) (*Tensor[T], error) {
	data := make([]T, 0, len(rows)*width)
	for _, row := range rows {
		if len(row) != width {
			return nil, &ShapeError{
				Op:       "stack rows",
				Expected: NewShape(int64(width)),
				Got:      NewShape(int64(len(row))),
			}
		}
		data = append(data, row...)
	}
	return &Tensor[T]{shape: NewShape(int64(len(rows)), int64(width)), data: data}, nil
}

// Shape returns a copy of the tensor's shape
func (t *Tensor[T]) Shape() Shape {
	return t.shape.Clone()
}

// Data returns the backing slice
func (t *Tensor[T]) Data() []T {
	return t.data
}

// Len returns the number of elements
func (t *Tensor[T]) Len() int {
	return len(t.data)
}

// Reshape returns a view of the same data with a new shape
func (t *Tensor[T]) Reshape(shape Shape) (*Tensor[T], error) {
	if !shape.Valid() || shape.Size() != len(t.data) {
		return nil, &ShapeError{Op: "reshape", Expected: shape.Clone(), Got: t.shape.Clone()}
	}
	return &Tensor[T]{shape: shape.Clone(), data: t.data}, nil
}

// Row returns the i-th row of a rank-2 tensor
func (t *Tensor[T]) Row(i int) ([]T, error) {
	if t.shape.Rank() != 2 {
		return nil, &ShapeError{Op: "row", Expected: NewShape(-1, -1), Got: t.shape.Clone()}
	}
	rows, width := int(t.shape[0]), int(t.shape[1])
	if i < 0 || i >= rows {
		return nil, &ShapeError{Op: "row", Expected: t.shape.Clone(), Got: NewShape(int64(i), int64(width))}
	}
	return t.data[i*width : (i+1)*width], nil
}

// Rows splits a rank-2 tensor along its first axis
func (t *Tensor[T]) Rows() ([][]T, error) {
	if t.shape.Rank() != 2 {
		return nil, &ShapeError{Op: "rows", Expected: NewShape(-1, -1), Got: t.shape.Clone()}
	}
	rows, width := int(t.shape[0]), int(t.shape[1])
	out := make([][]T, rows)
	for i := range out {
		out[i] = t.data[i*width : (i+1)*width]
	}
	return out, nil
}
