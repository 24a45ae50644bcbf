// Package logquant implements logarithmic activation quantization for
// post-ReLU feature maps.
//
// Activations are transformed with log2(x+1) before uniform coding, trading
// resolution at large magnitudes for resolution near zero. The codec is
// stateless: every Coded value carries its own decode parameters.
package logquant
