// Package predictor implements the TIFF prediction schemes applied before
// compression and undone after decompression.
//
// Horizontal differencing (Predictor=2) replaces each sample with its
// difference from the same sample of the previous pixel. The floating-point
// predictor (Predictor=3) first splits each row into byte planes, most
// significant byte first, and then differences the bytes.
//
// All functions work on one row at a time, in place, with samples in host
// byte order. stride is the number of samples per pixel in the row.
package predictor

import (
	"encoding/binary"
	"errors"

	"github.com/mrjoshuak/go-tiff/internal/interleave"
)

// Predictor values as stored in the Predictor tag.
const (
	None          = 1
	Horizontal    = 2
	FloatingPoint = 3
)

// ErrUnsupportedBits is returned for sample widths the predictor cannot handle.
var ErrUnsupportedBits = errors.New("predictor: unsupported bits per sample")

var native = binary.NativeEndian

// Encode applies byte-wise horizontal differencing to data in place.
// The first byte remains unchanged.
func Encode(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	// Work backwards to preserve values we need
	i := n - 1
	for ; i >= 8; i -= 8 {
		data[i] = data[i] - data[i-1]
		data[i-1] = data[i-1] - data[i-2]
		data[i-2] = data[i-2] - data[i-3]
		data[i-3] = data[i-3] - data[i-4]
		data[i-4] = data[i-4] - data[i-5]
		data[i-5] = data[i-5] - data[i-6]
		data[i-6] = data[i-6] - data[i-7]
		data[i-7] = data[i-7] - data[i-8]
	}
	for ; i >= 1; i-- {
		data[i] = data[i] - data[i-1]
	}
}

// Decode reverses Encode in place.
func Decode(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	i := 1
	for ; i+7 < n; i += 8 {
		data[i] += data[i-1]
		data[i+1] += data[i]
		data[i+2] += data[i+1]
		data[i+3] += data[i+2]
		data[i+4] += data[i+3]
		data[i+5] += data[i+4]
		data[i+6] += data[i+5]
		data[i+7] += data[i+6]
	}
	for ; i < n; i++ {
		data[i] += data[i-1]
	}
}

// EncodeRow applies horizontal differencing to one row of samples.
func EncodeRow(row []byte, stride, bitsPerSample int) error {
	if stride < 1 {
		stride = 1
	}
	switch bitsPerSample {
	case 8:
		if stride == 1 {
			Encode(row)
			return nil
		}
		for i := len(row) - 1; i >= stride; i-- {
			row[i] -= row[i-stride]
		}
	case 16:
		n := len(row) / 2
		for i := n - 1; i >= stride; i-- {
			v := native.Uint16(row[2*i:]) - native.Uint16(row[2*(i-stride):])
			native.PutUint16(row[2*i:], v)
		}
	case 32:
		n := len(row) / 4
		for i := n - 1; i >= stride; i-- {
			v := native.Uint32(row[4*i:]) - native.Uint32(row[4*(i-stride):])
			native.PutUint32(row[4*i:], v)
		}
	case 64:
		n := len(row) / 8
		for i := n - 1; i >= stride; i-- {
			v := native.Uint64(row[8*i:]) - native.Uint64(row[8*(i-stride):])
			native.PutUint64(row[8*i:], v)
		}
	default:
		return ErrUnsupportedBits
	}
	return nil
}

// DecodeRow reverses EncodeRow.
func DecodeRow(row []byte, stride, bitsPerSample int) error {
	if stride < 1 {
		stride = 1
	}
	switch bitsPerSample {
	case 8:
		if stride == 1 {
			Decode(row)
			return nil
		}
		for i := stride; i < len(row); i++ {
			row[i] += row[i-stride]
		}
	case 16:
		n := len(row) / 2
		for i := stride; i < n; i++ {
			v := native.Uint16(row[2*i:]) + native.Uint16(row[2*(i-stride):])
			native.PutUint16(row[2*i:], v)
		}
	case 32:
		n := len(row) / 4
		for i := stride; i < n; i++ {
			v := native.Uint32(row[4*i:]) + native.Uint32(row[4*(i-stride):])
			native.PutUint32(row[4*i:], v)
		}
	case 64:
		n := len(row) / 8
		for i := stride; i < n; i++ {
			v := native.Uint64(row[8*i:]) + native.Uint64(row[8*(i-stride):])
			native.PutUint64(row[8*i:], v)
		}
	default:
		return ErrUnsupportedBits
	}
	return nil
}

// EncodeFloatRow applies the floating-point predictor to one row.
// tmp is scratch space of at least len(row) bytes; nil allocates.
func EncodeFloatRow(row []byte, stride, bitsPerSample int, tmp []byte) error {
	bps := bitsPerSample / 8
	if bitsPerSample%8 != 0 || (bps != 2 && bps != 4 && bps != 8) {
		return ErrUnsupportedBits
	}
	if stride < 1 {
		stride = 1
	}
	toBigEndian(row, bps)
	tmp = interleave.Interleave(row, bps, tmp)
	copy(row, tmp[:len(row)])
	for i := len(row) - 1; i >= stride; i-- {
		row[i] -= row[i-stride]
	}
	return nil
}

// DecodeFloatRow reverses EncodeFloatRow.
func DecodeFloatRow(row []byte, stride, bitsPerSample int, tmp []byte) error {
	bps := bitsPerSample / 8
	if bitsPerSample%8 != 0 || (bps != 2 && bps != 4 && bps != 8) {
		return ErrUnsupportedBits
	}
	if stride < 1 {
		stride = 1
	}
	for i := stride; i < len(row); i++ {
		row[i] += row[i-stride]
	}
	tmp = interleave.Deinterleave(row, bps, tmp)
	copy(row, tmp[:len(row)])
	toBigEndian(row, bps)
	return nil
}

// toBigEndian swaps host-order samples to big-endian. The operation is its
// own inverse and a no-op on big-endian hosts.
func toBigEndian(row []byte, bps int) {
	var probe [2]byte
	native.PutUint16(probe[:], 1)
	if probe[0] == 0 {
		return
	}
	n := len(row) / bps * bps
	for i := 0; i < n; i += bps {
		s := row[i : i+bps]
		for a, b := 0, bps-1; a < b; a, b = a+1, b-1 {
			s[a], s[b] = s[b], s[a]
		}
	}
}
