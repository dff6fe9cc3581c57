// Package half decodes IEEE 754 binary16 values.
//
// TIFF stores 16-bit floating-point samples (SampleFormat=3,
// BitsPerSample=16) in this layout:
//   - 1 bit sign
//   - 5 bits exponent (bias of 15)
//   - 10 bits mantissa (implicit leading 1 for normalized values)
package half

import "math"

// Half is a binary16 value in its raw bit form.
type Half uint16

const (
	signBit      = 0x8000
	exponentMask = 0x7C00
	mantissaMask = 0x03FF
)

// FromBits returns the Half with the given bit pattern.
func FromBits(b uint16) Half { return Half(b) }

// IsNaN reports whether h is a NaN.
func (h Half) IsNaN() bool {
	return h&exponentMask == exponentMask && h&mantissaMask != 0
}

// Float32 converts h to a float32. The conversion is exact.
func (h Half) Float32() float32 {
	sign := uint32(h&signBit) << 16
	exp := uint32(h&exponentMask) >> 10
	mant := uint32(h & mantissaMask)

	switch exp {
	case 0:
		if mant == 0 {
			return math.Float32frombits(sign)
		}
		// Subnormal: renormalize.
		e := uint32(127 - 15 + 1)
		for mant&0x400 == 0 {
			mant <<= 1
			e--
		}
		mant &= mantissaMask
		return math.Float32frombits(sign | e<<23 | mant<<13)
	case 0x1F:
		return math.Float32frombits(sign | 0x7F800000 | mant<<13)
	}
	return math.Float32frombits(sign | (exp+127-15)<<23 | mant<<13)
}
