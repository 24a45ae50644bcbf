package model

import (
	"context"

	"github.com/hupe1980/quantkit/tensor"
)

// LayerKind classifies a layer for precision assignment.
type LayerKind uint8

const (
	// KindOther marks layers that are never quantized (pooling, flatten, dense heads).
	KindOther LayerKind = iota
	// KindStandard marks regular convolutions.
	KindStandard
	// KindDepthwise marks depthwise convolutions.
	KindDepthwise
	// KindPointwise marks pointwise (1x1) convolutions.
	KindPointwise
)

// IsConvolution reports whether the kind participates in sensitivity sweeps.
func (k LayerKind) IsConvolution() bool {
	return k == KindStandard || k == KindDepthwise || k == KindPointwise
}

// String returns the lowercase tag name.
func (k LayerKind) String() string {
	switch k {
	case KindStandard:
		return "conv"
	case KindDepthwise:
		return "depthwise"
	case KindPointwise:
		return "pointwise"
	default:
		return "other"
	}
}

// LayerInfo describes one named layer of a Model.
type LayerInfo struct {
	Name string
	Kind LayerKind
}

// Model is the trained network under analysis.
//
// Implementations must be deterministic: the same weights and inputs always
// produce the same scores. SetWeights replaces a layer's weight list atomically;
// a Model never observes a partially-updated layer.
type Model interface {
	// Layers returns all layers in declaration order.
	Layers() []LayerInfo

	// Weights returns the weight tensors of the named layer.
	// The returned tensors are owned by the model; callers must Clone before mutating.
	Weights(layerName string) ([]*tensor.Tensor, error)

	// SetWeights atomically replaces the weight tensors of the named layer.
	SetWeights(layerName string, weights []*tensor.Tensor) error

	// Forward runs a batch of inputs through the network and returns one
	// per-class score slice per input.
	Forward(ctx context.Context, inputs []*tensor.Tensor) ([][]float32, error)
}

// Sample is one labeled evaluation input.
type Sample struct {
	Input *tensor.Tensor
	Label int
}

// Dataset is a fixed ordered sequence of labeled samples.
type Dataset interface {
	Len() int
	Sample(i int) Sample
}

// Samples is a slice-backed Dataset.
type Samples []Sample

// Len returns the number of samples.
func (s Samples) Len() int { return len(s) }

// Sample returns the i-th sample.
func (s Samples) Sample(i int) Sample { return s[i] }
