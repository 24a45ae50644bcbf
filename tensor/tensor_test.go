package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZeroFilled(t *testing.T) {
	ts := New(2, 3)
	assert.Equal(t, []int{2, 3}, ts.Shape())
	assert.Equal(t, 2, ts.Rank())
	assert.Equal(t, 6, ts.NumElements())
	for _, v := range ts.Data() {
		assert.Zero(t, v)
	}
}

func TestScalarTensor(t *testing.T) {
	ts := New()
	assert.Equal(t, 0, ts.Rank())
	assert.Equal(t, 1, ts.NumElements())
	assert.Equal(t, "Tensor(scalar)", ts.String())
}

func TestFromSlice(t *testing.T) {
	ts, err := FromSlice([]float32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, ts.Data())

	_, err = FromSlice([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)
}

func TestFromSliceCopies(t *testing.T) {
	src := []float32{1, 2}
	ts, err := FromSlice(src, 2)
	require.NoError(t, err)

	src[0] = 99
	assert.Equal(t, float32(1), ts.Data()[0])
}

func TestClone(t *testing.T) {
	ts, err := FromSlice([]float32{1, 2, 3, 4}, 4)
	require.NoError(t, err)

	c := ts.Clone()
	c.Data()[0] = 42
	assert.Equal(t, float32(1), ts.Data()[0])
	assert.True(t, ts.SameShape(c))
}

func TestMinMax(t *testing.T) {
	ts, err := FromSlice([]float32{-1.5, 0, 2.25, 1}, 4)
	require.NoError(t, err)

	min, max := ts.MinMax()
	assert.Equal(t, float32(-1.5), min)
	assert.Equal(t, float32(2.25), max)
}

func TestMinMaxEmpty(t *testing.T) {
	ts := New(0)
	min, max := ts.MinMax()
	assert.Zero(t, min)
	assert.Zero(t, max)
}

func TestSameShape(t *testing.T) {
	a := New(2, 3)
	b := New(2, 3)
	c := New(3, 2)
	assert.True(t, a.SameShape(b))
	assert.False(t, a.SameShape(c))
	assert.False(t, a.SameShape(New(2, 3, 1)))
}

func TestString(t *testing.T) {
	assert.Equal(t, "Tensor(1x1x64x8)", New(1, 1, 64, 8).String())
}
