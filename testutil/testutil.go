package testutil

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/quantkit/model"
	"github.com/hupe1980/quantkit/tensor"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// FillGaussian fills dst with values from a standard normal distribution.
func (r *RNG) FillGaussian(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = float32(r.rand.NormFloat64())
	}
}

// RandomTensor creates a tensor filled with uniform values in [-1, 1).
func RandomTensor(rng *RNG, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	rng.FillUniformRange(t.Data(), -1, 1)
	return t
}

// GaussianTensor creates a tensor filled with standard normal values.
func GaussianTensor(rng *RNG, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	rng.FillGaussian(t.Data())
	return t
}

// fakeLayer is one dense stage of the fake network: a rank-2 kernel and a
// rank-1 bias.
type fakeLayer struct {
	info   model.LayerInfo
	kernel *tensor.Tensor
	bias   *tensor.Tensor
}

// FakeModel is a tiny deterministic feed-forward network implementing
// model.Model. Each layer is a dense matrix stage with ReLU between stages,
// which is enough structure for quantization damage to show up in top-1
// accuracy.
type FakeModel struct {
	layers []*fakeLayer
}

// LayerSpec describes one stage of a FakeModel.
type LayerSpec struct {
	Name string
	Kind model.LayerKind
	In   int
	Out  int
}

// NewFakeModel builds a network from layer specs with random weights.
// Adjacent specs must agree on dimensions.
func NewFakeModel(rng *RNG, specs ...LayerSpec) *FakeModel {
	m := &FakeModel{}
	for _, s := range specs {
		kernel := tensor.New(s.Out, s.In)
		rng.FillGaussian(kernel.Data())
		bias := tensor.New(s.Out)
		rng.FillUniformRange(bias.Data(), -0.1, 0.1)

		m.layers = append(m.layers, &fakeLayer{
			info:   model.LayerInfo{Name: s.Name, Kind: s.Kind},
			kernel: kernel,
			bias:   bias,
		})
	}
	return m
}

// NewSeparableNet builds the standard test architecture: a depthwise stage, a
// pointwise stage, and a classifier head over 16-dimensional inputs with 8
// output classes.
func NewSeparableNet(rng *RNG) *FakeModel {
	return NewFakeModel(rng,
		LayerSpec{Name: "conv1_dw", Kind: model.KindDepthwise, In: 16, Out: 16},
		LayerSpec{Name: "conv1_pw", Kind: model.KindPointwise, In: 16, Out: 16},
		LayerSpec{Name: "fc", Kind: model.KindOther, In: 16, Out: 8},
	)
}

// InputDim returns the expected input vector length.
func (m *FakeModel) InputDim() int {
	return m.layers[0].kernel.Shape()[1]
}

// Layers implements model.Model.
func (m *FakeModel) Layers() []model.LayerInfo {
	infos := make([]model.LayerInfo, len(m.layers))
	for i, l := range m.layers {
		infos[i] = l.info
	}
	return infos
}

// Weights implements model.Model.
func (m *FakeModel) Weights(layerName string) ([]*tensor.Tensor, error) {
	l, err := m.layer(layerName)
	if err != nil {
		return nil, err
	}
	return []*tensor.Tensor{l.kernel, l.bias}, nil
}

// SetWeights implements model.Model.
func (m *FakeModel) SetWeights(layerName string, weights []*tensor.Tensor) error {
	l, err := m.layer(layerName)
	if err != nil {
		return err
	}
	if len(weights) != 2 {
		return fmt.Errorf("layer %q expects 2 weight tensors, got %d", layerName, len(weights))
	}
	if !weights[0].SameShape(l.kernel) || !weights[1].SameShape(l.bias) {
		return fmt.Errorf("layer %q weight shape mismatch", layerName)
	}
	l.kernel = weights[0]
	l.bias = weights[1]
	return nil
}

// Forward implements model.Model.
func (m *FakeModel) Forward(ctx context.Context, inputs []*tensor.Tensor) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if in.NumElements() != m.InputDim() {
			return nil, fmt.Errorf("input %d has %d elements, want %d", i, in.NumElements(), m.InputDim())
		}

		v := in.Data()
		for li, l := range m.layers {
			v = l.apply(v)
			if li < len(m.layers)-1 {
				relu(v)
			}
		}
		out[i] = v
	}
	return out, nil
}

func (m *FakeModel) layer(name string) (*fakeLayer, error) {
	for _, l := range m.layers {
		if l.info.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("no such layer %q", name)
}

func (l *fakeLayer) apply(v []float32) []float32 {
	shape := l.kernel.Shape()
	rows, cols := shape[0], shape[1]
	k := l.kernel.Data()
	b := l.bias.Data()

	out := make([]float32, rows)
	for r := 0; r < rows; r++ {
		sum := b[r]
		row := k[r*cols : (r+1)*cols]
		for c, w := range row {
			sum += w * v[c]
		}
		out[r] = sum
	}
	return out
}

func relu(v []float32) {
	for i, x := range v {
		if x < 0 {
			v[i] = 0
		}
	}
}

// SelfLabeledDataset generates n random inputs labeled by the model's own
// clean predictions. Baseline top-1 accuracy over the result is exactly 1.0.
func SelfLabeledDataset(m *FakeModel, rng *RNG, n int) (model.Samples, error) {
	samples := make(model.Samples, n)
	for i := range samples {
		in := RandomTensor(rng, m.InputDim())
		scores, err := m.Forward(context.Background(), []*tensor.Tensor{in})
		if err != nil {
			return nil, err
		}

		label := 0
		for j, s := range scores[0] {
			if s > scores[0][label] {
				label = j
			}
		}
		samples[i] = model.Sample{Input: in, Label: label}
	}
	return samples, nil
}
