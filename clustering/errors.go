package clustering

import "errors"

var (
	// ErrInvalidClusterCount is returned when the cluster count is not positive
	// or exceeds the representable index width.
	ErrInvalidClusterCount = errors.New("invalid cluster count")

	// ErrEmptyTensor is returned when a tensor with zero elements is quantized.
	ErrEmptyTensor = errors.New("tensor has no elements")

	// ErrUnknownLayer is returned when no quantized state exists for a layer.
	ErrUnknownLayer = errors.New("no quantized state for layer")
)
