package logquant

import (
	"math"
	"testing"

	"github.com/hupe1980/quantkit/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantize(t *testing.T) {
	t.Run("max element saturates the code range", func(t *testing.T) {
		in, err := tensor.FromSlice([]float32{0, 0.5, 10, 100}, 4)
		require.NoError(t, err)

		c, err := Quantize(in, 8)
		require.NoError(t, err)

		assert.Equal(t, float32(100), c.Max())
		assert.Equal(t, 8, c.Bits())
		assert.Equal(t, uint16(255), c.Codes()[3])
		assert.Equal(t, uint16(0), c.Codes()[0])

		// Decoding the saturated code lands within one log-domain step of
		// the original maximum.
		out, err := c.Decode()
		require.NoError(t, err)

		scale := 255 / (math.Log2(101) + eps)
		step := math.Exp2(256/scale) - math.Exp2(255/scale)
		assert.InDelta(t, 100, out.Data()[3], step)
	})

	t.Run("negatives clamp to zero", func(t *testing.T) {
		in, err := tensor.FromSlice([]float32{-5, -0.1, 0, 2}, 4)
		require.NoError(t, err)

		c, err := Quantize(in, 4)
		require.NoError(t, err)
		assert.Equal(t, float32(2), c.Max())
		assert.Equal(t, uint16(0), c.Codes()[0])
		assert.Equal(t, uint16(0), c.Codes()[1])
		assert.Equal(t, uint16(0), c.Codes()[2])

		out, err := c.Decode()
		require.NoError(t, err)
		assert.Equal(t, float32(0), out.Data()[0])
	})

	t.Run("all zero input", func(t *testing.T) {
		c, err := Quantize(tensor.New(3, 3), 8)
		require.NoError(t, err)

		for _, code := range c.Codes() {
			assert.Equal(t, uint16(0), code)
		}

		out, err := c.Decode()
		require.NoError(t, err)
		for _, v := range out.Data() {
			assert.Equal(t, float32(0), v)
		}
	})

	t.Run("codes are monotone in the input", func(t *testing.T) {
		in, err := tensor.FromSlice([]float32{0.1, 0.5, 1, 3, 9, 27}, 6)
		require.NoError(t, err)

		c, err := Quantize(in, 8)
		require.NoError(t, err)

		codes := c.Codes()
		for i := 1; i < len(codes); i++ {
			assert.GreaterOrEqual(t, codes[i], codes[i-1])
		}
	})

	t.Run("small activations get finer resolution", func(t *testing.T) {
		in, err := tensor.FromSlice([]float32{0.5, 1.0, 99, 99.5, 100}, 5)
		require.NoError(t, err)

		c, err := Quantize(in, 8)
		require.NoError(t, err)

		codes := c.Codes()
		lowSpread := int(codes[1]) - int(codes[0])
		highSpread := int(codes[4]) - int(codes[2])
		assert.Greater(t, lowSpread, highSpread)
	})

	t.Run("shape round-trips", func(t *testing.T) {
		in := tensor.New(2, 3, 4)
		c, err := Quantize(in, 6)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 4}, c.Shape())

		out, err := c.Decode()
		require.NoError(t, err)
		assert.Equal(t, []int{2, 3, 4}, out.Shape())
	})

	t.Run("invalid bits", func(t *testing.T) {
		in := tensor.New(2)
		_, err := Quantize(in, 0)
		assert.ErrorIs(t, err, ErrInvalidBits)
		_, err = Quantize(in, MaxBits+1)
		assert.ErrorIs(t, err, ErrInvalidBits)
	})

	t.Run("stateless dequantize matches decode", func(t *testing.T) {
		in, err := tensor.FromSlice([]float32{0, 1, 5, 20}, 4)
		require.NoError(t, err)

		c, err := Quantize(in, 8)
		require.NoError(t, err)

		fromCoded, err := c.Decode()
		require.NoError(t, err)
		fromRaw, err := Dequantize(c.Codes(), c.Shape(), c.Max(), c.Bits())
		require.NoError(t, err)
		assert.Equal(t, fromCoded.Data(), fromRaw.Data())

		_, err = Dequantize(c.Codes(), c.Shape(), c.Max(), 0)
		assert.ErrorIs(t, err, ErrInvalidBits)
	})

	t.Run("empty tensor", func(t *testing.T) {
		_, err := Quantize(tensor.New(0), 8)
		assert.ErrorIs(t, err, ErrEmptyTensor)
		_, err = Quantize(nil, 8)
		assert.ErrorIs(t, err, ErrEmptyTensor)
	})
}
