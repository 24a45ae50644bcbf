package tensor

import (
	"fmt"
	"math"
)

// Tensor is a dense multi-dimensional array of float32 values in row-major order.
//
// A rank-0 tensor (empty shape) holds exactly one element and is treated as a
// scalar. The zero value is not usable; construct tensors via New or FromSlice.
type Tensor struct {
	shape []int
	data  []float32
}

// New creates a zero-filled tensor with the given shape.
// It panics if any dimension is negative.
func New(shape ...int) *Tensor {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("tensor: negative dimension %d", d))
		}
		n *= d
	}
	return &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float32, n),
	}
}

// FromSlice creates a tensor backed by a copy of data, reshaped to shape.
// The number of elements implied by shape must match len(data).
func FromSlice(data []float32, shape ...int) (*Tensor, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("tensor: negative dimension %d", d)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("tensor: shape %v implies %d elements, got %d", shape, n, len(data))
	}
	t := &Tensor{
		shape: append([]int(nil), shape...),
		data:  make([]float32, len(data)),
	}
	copy(t.data, data)
	return t, nil
}

// Shape returns a copy of the tensor's shape.
func (t *Tensor) Shape() []int {
	return append([]int(nil), t.shape...)
}

// Rank returns the number of dimensions.
func (t *Tensor) Rank() int {
	return len(t.shape)
}

// NumElements returns the total element count.
func (t *Tensor) NumElements() int {
	return len(t.data)
}

// Data returns the backing slice in row-major order.
// Mutating the returned slice mutates the tensor.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Clone returns a deep copy.
func (t *Tensor) Clone() *Tensor {
	c := &Tensor{
		shape: append([]int(nil), t.shape...),
		data:  make([]float32, len(t.data)),
	}
	copy(c.data, t.data)
	return c
}

// MinMax returns the minimum and maximum element values.
// For an empty tensor both results are 0.
func (t *Tensor) MinMax() (min, max float32) {
	if len(t.data) == 0 {
		return 0, 0
	}
	min = float32(math.MaxFloat32)
	max = float32(-math.MaxFloat32)
	for _, v := range t.data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// SameShape reports whether t and o have identical shapes.
func (t *Tensor) SameShape(o *Tensor) bool {
	if len(t.shape) != len(o.shape) {
		return false
	}
	for i, d := range t.shape {
		if d != o.shape[i] {
			return false
		}
	}
	return true
}

// String returns a short description, e.g. "Tensor(1x1x64x8)".
func (t *Tensor) String() string {
	if len(t.shape) == 0 {
		return "Tensor(scalar)"
	}
	s := "Tensor("
	for i, d := range t.shape {
		if i > 0 {
			s += "x"
		}
		s += fmt.Sprintf("%d", d)
	}
	return s + ")"
}
