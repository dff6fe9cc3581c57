// Package endian provides byte-order aware readers and writers over byte
// slices for TIFF structures.
//
// A TIFF file declares its byte order in the header ("II" for little-endian,
// "MM" for big-endian) and every multi-byte value in the file follows it.
// Reader and BufferWriter carry that order explicitly instead of assuming one.
package endian

import (
	"encoding/binary"
	"errors"
	"math"
)

var (
	// ErrShortBuffer is returned when a read cannot complete because there
	// isn't enough data left in the buffer.
	ErrShortBuffer = errors.New("endian: buffer too short")

	// ErrNegativeSize is returned when a size parameter is negative.
	ErrNegativeSize = errors.New("endian: negative size")
)

// Native is the byte order of the running machine.
var Native binary.ByteOrder = binary.NativeEndian

// IsNative reports whether order matches the host byte order.
func IsNative(order binary.ByteOrder) bool {
	var b [2]byte
	order.PutUint16(b[:], 1)
	return Native.Uint16(b[:]) == 1
}

// Reader provides bounds-checked reading from a byte slice in a fixed
// byte order.
type Reader struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// NewReader creates a Reader over data using the given byte order.
func NewReader(data []byte, order binary.ByteOrder) *Reader {
	return &Reader{data: data, order: order}
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.data) {
		return 0
	}
	return len(r.data) - r.pos
}

// Pos returns the current read position.
func (r *Reader) Pos() int {
	return r.pos
}

// Skip advances the read position by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return ErrShortBuffer
	}
	r.pos += n
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, ErrShortBuffer
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads n bytes into a new slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrNegativeSize
	}
	if r.pos+n > len(r.data) {
		return nil, ErrShortBuffer
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadUint16 reads an unsigned 16-bit integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := r.order.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads an unsigned 32-bit integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := r.order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadUint64 reads an unsigned 64-bit integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, ErrShortBuffer
	}
	v := r.order.Uint64(r.data[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadFloat32 reads a 32-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadFloat64 reads a 64-bit IEEE 754 floating-point number.
func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// BufferWriter is a growing buffer for writing binary data in a fixed
// byte order.
type BufferWriter struct {
	buf   []byte
	order binary.ByteOrder
}

// NewBufferWriter creates a BufferWriter with an initial capacity.
func NewBufferWriter(capacity int, order binary.ByteOrder) *BufferWriter {
	return &BufferWriter{buf: make([]byte, 0, capacity), order: order}
}

// Len returns the number of bytes written.
func (w *BufferWriter) Len() int {
	return len(w.buf)
}

// Bytes returns the written data.
// The returned slice is valid until the next write operation.
func (w *BufferWriter) Bytes() []byte {
	return w.buf
}

// Reset clears the buffer.
func (w *BufferWriter) Reset() {
	w.buf = w.buf[:0]
}

// WriteByte writes a single byte.
func (w *BufferWriter) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteBytes writes a byte slice.
func (w *BufferWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Pad appends zero bytes until the length is a multiple of align.
func (w *BufferWriter) Pad(align int) {
	for align > 1 && len(w.buf)%align != 0 {
		w.buf = append(w.buf, 0)
	}
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *BufferWriter) WriteUint16(v uint16) {
	var b [2]byte
	w.order.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *BufferWriter) WriteUint32(v uint32) {
	var b [4]byte
	w.order.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *BufferWriter) WriteUint64(v uint64) {
	var b [8]byte
	w.order.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteFloat32 writes a 32-bit IEEE 754 floating-point number.
func (w *BufferWriter) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes a 64-bit IEEE 754 floating-point number.
func (w *BufferWriter) WriteFloat64(v float64) {
	w.WriteUint64(math.Float64bits(v))
}

// PutUint32At overwrites a previously written 32-bit value at pos.
func (w *BufferWriter) PutUint32At(pos int, v uint32) error {
	if pos < 0 || pos+4 > len(w.buf) {
		return ErrShortBuffer
	}
	w.order.PutUint32(w.buf[pos:], v)
	return nil
}
