// Package tensor provides the dense float32 tensor value type shared by the
// quantization components.
//
// A Tensor is a shape plus a flat row-major backing slice. It is deliberately
// minimal: the quantizers only ever need flattening, cloning and min/max scans,
// so there is no broadcasting, no views and no arithmetic here.
package tensor
