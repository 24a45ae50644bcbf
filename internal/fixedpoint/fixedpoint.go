// Package fixedpoint renders float values as two's-complement fixed-point bit
// patterns for hardware-facing codebook files.
package fixedpoint

import (
	"fmt"
	"math"
)

// Format converts v to a signed fixed-point word with fracBits fractional bits
// and returns its two's-complement bit pattern, zero-padded to width bits.
//
// Values outside the representable range saturate at the word boundaries
// rather than wrapping.
func Format(v float64, fracBits, width int) string {
	code := int64(math.Round(v * float64(int64(1)<<fracBits)))

	max := int64(1)<<(width-1) - 1
	min := -(int64(1) << (width - 1))
	if code > max {
		code = max
	}
	if code < min {
		code = min
	}

	mask := uint64(1)<<width - 1
	return fmt.Sprintf("%0*b", width, uint64(code)&mask)
}

// Decode parses a two's-complement bit pattern produced by Format back into a
// float64. The pattern length determines the word width.
func Decode(pattern string, fracBits int) (float64, error) {
	width := len(pattern)
	if width == 0 || width > 64 {
		return 0, fmt.Errorf("fixedpoint: invalid pattern width %d", width)
	}

	var bits uint64
	for _, c := range pattern {
		switch c {
		case '0':
			bits <<= 1
		case '1':
			bits = bits<<1 | 1
		default:
			return 0, fmt.Errorf("fixedpoint: invalid character %q in pattern", c)
		}
	}

	// Sign-extend.
	code := int64(bits)
	if width < 64 && bits&(1<<(width-1)) != 0 {
		code = int64(bits | ^(uint64(1)<<width - 1))
	}

	return float64(code) / float64(int64(1)<<fracBits), nil
}
