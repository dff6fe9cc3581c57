package compression

import "errors"

// PackBits errors
var (
	ErrPackBitsCorrupted = errors.New("compression: corrupted PackBits data")
	ErrPackBitsOverflow  = errors.New("compression: PackBits output overflow")
)

// PackBitsCompress encodes src with the Macintosh PackBits run-length scheme
// (Compression=32773).
//
// Each packet starts with a signed count byte n:
//   - 0..127: copy the next n+1 bytes literally
//   - -1..-127: repeat the next byte -n+1 times
//   - -128: no-op
//
// rowSize splits the input into independently encoded rows; TIFF requires
// runs not to cross scanline boundaries. A rowSize <= 0 encodes src as one row.
func PackBitsCompress(src []byte, rowSize int) []byte {
	if len(src) == 0 {
		return nil
	}
	if rowSize <= 0 || rowSize > len(src) {
		rowSize = len(src)
	}

	dst := make([]byte, 0, len(src)+len(src)/128+1)
	for start := 0; start < len(src); start += rowSize {
		end := min(start+rowSize, len(src))
		dst = packRow(dst, src[start:end])
	}
	return dst
}

func packRow(dst, src []byte) []byte {
	n := len(src)
	i := 0
	for i < n {
		// Measure the run starting at i.
		run := 1
		for i+run < n && run < 128 && src[i+run] == src[i] {
			run++
		}
		if run >= 2 {
			dst = append(dst, byte(int8(1-run)), src[i])
			i += run
			continue
		}

		// Literal: extend until a run of 3 or more begins.
		start := i
		for i < n && i-start < 128 {
			if i+2 < n && src[i] == src[i+1] && src[i] == src[i+2] {
				break
			}
			i++
		}
		dst = append(dst, byte(i-start-1))
		dst = append(dst, src[start:i]...)
	}
	return dst
}

// PackBitsDecompressTo decodes src into dst and returns the number of
// bytes written. Decoding stops when dst is full; a packet that would
// overflow dst is truncated and reported as ErrPackBitsOverflow.
func PackBitsDecompressTo(dst, src []byte) (int, error) {
	out := 0
	i := 0
	for i < len(src) && out < len(dst) {
		n := int(int8(src[i]))
		i++
		switch {
		case n >= 0:
			count := n + 1
			if i+count > len(src) {
				return out, ErrPackBitsCorrupted
			}
			if out+count > len(dst) {
				copy(dst[out:], src[i:])
				return len(dst), ErrPackBitsOverflow
			}
			copy(dst[out:], src[i:i+count])
			out += count
			i += count
		case n != -128:
			count := 1 - n
			if i >= len(src) {
				return out, ErrPackBitsCorrupted
			}
			b := src[i]
			i++
			if out+count > len(dst) {
				count = len(dst) - out
				for k := 0; k < count; k++ {
					dst[out+k] = b
				}
				return len(dst), ErrPackBitsOverflow
			}
			for k := 0; k < count; k++ {
				dst[out+k] = b
			}
			out += count
		}
	}
	if out < len(dst) {
		return out, ErrPackBitsCorrupted
	}
	return out, nil
}
