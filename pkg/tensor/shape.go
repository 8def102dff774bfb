package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents tensor dimensions, outermost first
type Shape []int64

// NewShape creates a shape from the given dimensions
func NewShape(dims ...int64) Shape {
	s := make(Shape, len(dims))
	copy(s, dims)
	return s
}

// Rank returns the number of dimensions
func (s Shape) Rank() int {
	return len(s)
}

// Size returns the total number of elements
func (s Shape) Size() int {
	if len(s) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range s {
		n *= d
	}
	return int(n)
}

// Valid reports whether every dimension is non-negative
func (s Shape) Valid() bool {
	for _, d := range s {
		if d < 0 {
			return false
		}
	}
	return true
}

// Equal reports whether two shapes have identical dimensions
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape
func (s Shape) Clone() Shape {
	return NewShape(s...)
}

// String renders the shape as [d0 d1 ...]
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.FormatInt(d, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// ShapeError reports data or dimensions incompatible with a declared shape
type ShapeError struct {
	Op       string
	Expected Shape
	Got      Shape
	Elements int
}

// Error implements the error interface
func (e *ShapeError) Error() string {
	switch {
	case e.Got != nil:
		return fmt.Sprintf("%s: expected shape %s, got %s", e.Op, e.Expected, e.Got)
	case e.Elements >= 0:
		return fmt.Sprintf("%s: shape %s holds %d elements, got %d",
			e.Op, e.Expected, e.Expected.Size(), e.Elements)
	default:
		return fmt.Sprintf("%s: invalid shape %s", e.Op, e.Expected)
	}
}
