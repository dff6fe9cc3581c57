// Package interleave splits fixed-size samples into byte planes and back.
//
// The TIFF floating-point predictor stores every row as byte planes: all
// most significant bytes first, then the next byte of every sample, and so
// on. Grouping the exponent bytes together makes the differenced stream far
// more compressible than raw IEEE values.
//
//	Input:  [A0, A1, B0, B1, C0, C1]  (three 2-byte samples)
//	Output: [A0, B0, C0, A1, B1, C1]
package interleave

// Interleave gathers byte i of every stride-byte element into plane i.
// Trailing bytes that do not form a whole element are copied unchanged.
// If out is nil, a new buffer is allocated.
func Interleave(data []byte, stride int, out []byte) []byte {
	if out == nil {
		out = make([]byte, len(data))
	}
	if stride <= 1 {
		copy(out, data)
		return out
	}
	n := len(data) / stride
	for plane := 0; plane < stride; plane++ {
		dst := out[plane*n : plane*n+n]
		for i := range dst {
			dst[i] = data[i*stride+plane]
		}
	}
	copy(out[n*stride:], data[n*stride:])
	return out
}

// Deinterleave reverses Interleave.
// If out is nil, a new buffer is allocated.
func Deinterleave(data []byte, stride int, out []byte) []byte {
	if out == nil {
		out = make([]byte, len(data))
	}
	if stride <= 1 {
		copy(out, data)
		return out
	}
	n := len(data) / stride
	for plane := 0; plane < stride; plane++ {
		src := data[plane*n : plane*n+n]
		for i, b := range src {
			out[i*stride+plane] = b
		}
	}
	copy(out[n*stride:], data[n*stride:])
	return out
}
