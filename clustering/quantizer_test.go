package clustering

import (
	"context"
	"math/rand"
	"testing"

	"github.com/hupe1980/quantkit/resource"
	"github.com/hupe1980/quantkit/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomTensor(t *testing.T, seed int64, shape ...int) *tensor.Tensor {
	t.Helper()

	n := 1
	for _, d := range shape {
		n *= d
	}

	rng := rand.New(rand.NewSource(seed))
	data := make([]float32, n)
	for i := range data {
		data[i] = rng.Float32()*2 - 1
	}

	tt, err := tensor.FromSlice(data, shape...)
	require.NoError(t, err)
	return tt
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		q, err := New(16)
		require.NoError(t, err)
		assert.Equal(t, 16, q.NumClusters())
		assert.Equal(t, 4, q.IndexBits())
	})

	t.Run("zero clusters", func(t *testing.T) {
		_, err := New(0)
		assert.ErrorIs(t, err, ErrInvalidClusterCount)
	})

	t.Run("negative clusters", func(t *testing.T) {
		_, err := New(-3)
		assert.ErrorIs(t, err, ErrInvalidClusterCount)
	})

	t.Run("too many clusters", func(t *testing.T) {
		_, err := New(MaxClusters + 1)
		assert.ErrorIs(t, err, ErrInvalidClusterCount)
	})
}

func TestQuantizeLayer(t *testing.T) {
	ctx := context.Background()

	t.Run("closed set", func(t *testing.T) {
		q, err := New(16)
		require.NoError(t, err)

		w := randomTensor(t, 1, 8, 8, 3)
		idx, codebook, err := q.QuantizeLayer(ctx, w, "conv1")
		require.NoError(t, err)
		require.Len(t, codebook, 16)
		require.Equal(t, w.NumElements(), idx.NumElements())
		assert.Equal(t, w.Shape(), idx.Shape())

		set := make(map[float32]bool, len(codebook))
		for _, c := range codebook {
			set[c] = true
		}

		deq, err := Dequantize(idx, codebook)
		require.NoError(t, err)
		for _, v := range deq.Data() {
			assert.True(t, set[v], "dequantized value %v not in codebook", v)
		}
	})

	t.Run("single cluster yields mean", func(t *testing.T) {
		q, err := New(1)
		require.NoError(t, err)

		w, err := tensor.FromSlice([]float32{1, 2, 3, 4}, 4)
		require.NoError(t, err)

		idx, codebook, err := q.QuantizeLayer(ctx, w, "fc")
		require.NoError(t, err)
		require.Len(t, codebook, 1)
		assert.InDelta(t, 2.5, codebook[0], 1e-6)
		for _, l := range idx.Labels() {
			assert.Equal(t, uint16(0), l)
		}
	})

	t.Run("identical weights", func(t *testing.T) {
		q, err := New(4)
		require.NoError(t, err)

		data := make([]float32, 32)
		for i := range data {
			data[i] = 0.75
		}
		w, err := tensor.FromSlice(data, 32)
		require.NoError(t, err)

		idx, codebook, err := q.QuantizeLayer(ctx, w, "flat")
		require.NoError(t, err)

		deq, err := Dequantize(idx, codebook)
		require.NoError(t, err)
		for _, v := range deq.Data() {
			assert.Equal(t, float32(0.75), v)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		w := randomTensor(t, 7, 16, 16)

		q1, err := New(8)
		require.NoError(t, err)
		idx1, cb1, err := q1.QuantizeLayer(ctx, w, "conv")
		require.NoError(t, err)

		q2, err := New(8)
		require.NoError(t, err)
		idx2, cb2, err := q2.QuantizeLayer(ctx, w, "conv")
		require.NoError(t, err)

		assert.Equal(t, cb1, cb2)
		assert.Equal(t, idx1.Labels(), idx2.Labels())
	})

	t.Run("empty tensor", func(t *testing.T) {
		q, err := New(16)
		require.NoError(t, err)

		_, _, err = q.QuantizeLayer(ctx, tensor.New(0), "empty")
		assert.ErrorIs(t, err, ErrEmptyTensor)

		_, _, err = q.QuantizeLayer(ctx, nil, "nil")
		assert.ErrorIs(t, err, ErrEmptyTensor)
	})

	t.Run("overwrite replaces entry", func(t *testing.T) {
		q, err := New(4)
		require.NoError(t, err)

		w1 := randomTensor(t, 11, 8)
		_, _, err = q.QuantizeLayer(ctx, w1, "conv")
		require.NoError(t, err)

		w2 := randomTensor(t, 13, 12)
		_, _, err = q.QuantizeLayer(ctx, w2, "conv")
		require.NoError(t, err)

		assert.Equal(t, []string{"conv"}, q.Layers())

		e, ok := q.Entry("conv")
		require.True(t, ok)
		assert.Equal(t, 12, e.Indices.NumElements())
	})
}

func TestQuantizeLayers(t *testing.T) {
	ctx := context.Background()

	q, err := New(8, WithController(resource.NewController(resource.Config{MaxWorkers: 2})))
	require.NoError(t, err)

	tensors := map[string]*tensor.Tensor{
		"conv1_dw": randomTensor(t, 1, 3, 3, 8),
		"conv1_pw": randomTensor(t, 2, 1, 1, 8, 16),
		"conv2_dw": randomTensor(t, 3, 3, 3, 16),
	}
	require.NoError(t, q.QuantizeLayers(ctx, tensors))

	assert.Len(t, q.Layers(), 3)
	for name, w := range tensors {
		e, ok := q.Entry(name)
		require.True(t, ok, name)
		assert.Equal(t, w.NumElements(), e.Indices.NumElements())
	}
}

func TestCompressionRatio(t *testing.T) {
	ctx := context.Background()

	q, err := New(16)
	require.NoError(t, err)

	w := randomTensor(t, 5, 512)
	_, _, err = q.QuantizeLayer(ctx, w, "conv")
	require.NoError(t, err)

	// (32*512) / (4*512 + 16*32) = 16384/2560
	ratio, err := q.CompressionRatio("conv", 32)
	require.NoError(t, err)
	assert.InDelta(t, 6.4, ratio, 1e-9)

	_, err = q.CompressionRatio("missing", 32)
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestDequantize_LabelOutOfRange(t *testing.T) {
	idx := &IndexTensor{shape: []int{2}, labels: []uint16{0, 5}}
	_, err := Dequantize(idx, []float32{0.1, 0.2})
	assert.Error(t, err)
}
