package logquant

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/quantkit/tensor"
)

// eps keeps the scale finite for activations whose maximum is zero.
const eps = 1e-8

// MaxBits bounds the code width so codes fit a 16-bit element.
const MaxBits = 16

var (
	// ErrInvalidBits is returned when the requested code width is outside [1, MaxBits].
	ErrInvalidBits = errors.New("invalid output bit-width")

	// ErrEmptyTensor is returned when an activation tensor has no elements.
	ErrEmptyTensor = errors.New("tensor has no elements")
)

// Coded is a log-quantized activation tensor. It carries everything needed to
// decode: the integer codes, the source shape, the clamped input maximum, and
// the code width.
type Coded struct {
	codes []uint16
	shape []int
	max   float32
	bits  int
}

// Codes returns the integer codes in row-major order.
func (c *Coded) Codes() []uint16 {
	return c.codes
}

// Shape returns a copy of the source tensor's shape.
func (c *Coded) Shape() []int {
	return append([]int(nil), c.shape...)
}

// Max returns the clamped maximum of the source activations.
func (c *Coded) Max() float32 {
	return c.max
}

// Bits returns the code width.
func (c *Coded) Bits() int {
	return c.bits
}

func scaleFor(max float32, outBits int) float64 {
	levels := float64(uint64(1)<<outBits - 1)
	return levels / (math.Log2(float64(max)+1) + eps)
}

// Quantize maps post-ReLU activations onto a logarithmic integer grid.
//
// Negative inputs are clamped to zero, each value is transformed with
// log2(x+1), and the transformed range is scaled onto [0, 2^outBits-1]. The
// log domain concentrates resolution on small activations, where ReLU
// networks carry most of their mass.
func Quantize(t *tensor.Tensor, outBits int) (*Coded, error) {
	if outBits < 1 || outBits > MaxBits {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBits, outBits)
	}
	if t == nil || t.NumElements() == 0 {
		return nil, ErrEmptyTensor
	}

	var max float32
	clamped := make([]float32, t.NumElements())
	for i, v := range t.Data() {
		if v < 0 {
			v = 0
		}
		clamped[i] = v
		if v > max {
			max = v
		}
	}

	scale := scaleFor(max, outBits)
	levels := float64(uint64(1)<<outBits - 1)

	codes := make([]uint16, len(clamped))
	for i, v := range clamped {
		code := math.Round(math.Log2(float64(v)+1) * scale)
		if code > levels {
			code = levels
		}
		codes[i] = uint16(code)
	}

	return &Coded{
		codes: codes,
		shape: t.Shape(),
		max:   max,
		bits:  outBits,
	}, nil
}

// Dequantize reconstructs activations from raw codes and the parameters a
// Coded value would carry. For values produced by Quantize, prefer Decode.
func Dequantize(codes []uint16, shape []int, originalMax float32, outBits int) (*tensor.Tensor, error) {
	if outBits < 1 || outBits > MaxBits {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBits, outBits)
	}
	c := &Coded{
		codes: codes,
		shape: append([]int(nil), shape...),
		max:   originalMax,
		bits:  outBits,
	}
	return c.Decode()
}

// Decode reconstructs the activation tensor by inverting the log transform.
// The reconstruction error of any element is at most one quantization step in
// the log domain.
func (c *Coded) Decode() (*tensor.Tensor, error) {
	scale := scaleFor(c.max, c.bits)

	data := make([]float32, len(c.codes))
	for i, code := range c.codes {
		data[i] = float32(math.Exp2(float64(code)/scale) - 1)
	}
	return tensor.FromSlice(data, c.shape...)
}
