package tiff

import "math/bits"

var bitReverse = func() (t [256]byte) {
	for i := range t {
		t[i] = bits.Reverse8(uint8(i))
	}
	return t
}()

// reverseBits reverses the bit order of every byte of b in place.
func reverseBits(b []byte) {
	for i, c := range b {
		b[i] = bitReverse[c]
	}
}

func swab16(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}

func swab24(b []byte) {
	for i := 0; i+2 < len(b); i += 3 {
		b[i], b[i+2] = b[i+2], b[i]
	}
}

func swab32(b []byte) {
	for i := 0; i+3 < len(b); i += 4 {
		b[i], b[i+1], b[i+2], b[i+3] = b[i+3], b[i+2], b[i+1], b[i]
	}
}

func swab64(b []byte) {
	for i := 0; i+7 < len(b); i += 8 {
		b[i], b[i+1], b[i+2], b[i+3], b[i+4], b[i+5], b[i+6], b[i+7] =
			b[i+7], b[i+6], b[i+5], b[i+4], b[i+3], b[i+2], b[i+1], b[i]
	}
}

// swabFunc returns the routine that converts samples of bps bits between
// file and host order, or nil when no conversion is needed.
func (f *File) swabFunc() func([]byte) {
	if !f.IsByteSwapped() {
		return nil
	}
	if f.usesPredictor() && f.dir.predictor == 3 {
		// The floating point predictor reorders bytes itself.
		return nil
	}
	switch f.dir.bitsPerSample {
	case 16:
		return swab16
	case 24:
		return swab24
	case 32:
		return swab32
	case 64:
		return swab64
	}
	return nil
}
