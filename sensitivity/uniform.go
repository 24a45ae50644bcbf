package sensitivity

import (
	"math"

	"github.com/hupe1980/quantkit/tensor"
)

// eps keeps the scale finite when a tensor is constant.
const eps = 1e-8

// RoundTrip quantizes t with a uniform affine scheme at the given bit-width and
// returns the dequantized copy. The input is not modified.
//
//	scale = (2^bits - 1) / (max - min + eps)
//	code  = round((w - min) * scale)
//	deq   = code/scale + min
func RoundTrip(t *tensor.Tensor, bits int) *tensor.Tensor {
	out := t.Clone()
	data := out.Data()
	if len(data) == 0 {
		return out
	}

	min, max := t.MinMax()
	lo := float64(min)
	scale := (math.Pow(2, float64(bits)) - 1) / (float64(max) - lo + eps)

	for i, v := range data {
		code := math.Round((float64(v) - lo) * scale)
		data[i] = float32(code/scale + lo)
	}
	return out
}

// roundTripLayer quantizes each weight tensor of a layer. Tensors of rank 0 or
// 1 are biases and pass through as copies, never quantized.
func roundTripLayer(weights []*tensor.Tensor, bits int) []*tensor.Tensor {
	out := make([]*tensor.Tensor, len(weights))
	for i, w := range weights {
		if w.Rank() <= 1 {
			out[i] = w.Clone()
			continue
		}
		out[i] = RoundTrip(w, bits)
	}
	return out
}
