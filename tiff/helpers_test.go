package tiff

import (
	"bytes"
	"io"
	"testing"
)

// mockWriteSeeker is an in-memory io.WriteSeeker that can also be read
// back through io.ReaderAt.
type mockWriteSeeker struct {
	data []byte
	pos  int64
}

func newMockWriteSeeker() *mockWriteSeeker {
	return &mockWriteSeeker{data: make([]byte, 0, 1024)}
}

func (m *mockWriteSeeker) Write(p []byte) (n int, err error) {
	needed := int(m.pos) + len(p)
	if needed > len(m.data) {
		if needed > cap(m.data) {
			newData := make([]byte, needed, needed*2)
			copy(newData, m.data)
			m.data = newData
		} else {
			m.data = m.data[:needed]
		}
	}
	copy(m.data[m.pos:], p)
	m.pos += int64(len(p))
	return len(p), nil
}

func (m *mockWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

func (m *mockWriteSeeker) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *mockWriteSeeker) Bytes() []byte { return m.data }

func quietOptions() *Options {
	o := DefaultOptions()
	o.Handler = DiscardHandler
	return &o
}

func mustSet(t *testing.T, f *File, tag Tag, v Value) {
	t.Helper()
	if err := f.SetField(tag, v); err != nil {
		t.Fatalf("SetField(%s, %v): %v", tag, v, err)
	}
}

// setImage sets the fields of a simple contiguous image.
func setImage(t *testing.T, f *File, w, h uint32, bps, spp, photometric uint16) {
	t.Helper()
	mustSet(t, f, TagImageWidth, Uint(uint64(w)))
	mustSet(t, f, TagImageLength, Uint(uint64(h)))
	mustSet(t, f, TagBitsPerSample, Uint(uint64(bps)))
	mustSet(t, f, TagSamplesPerPixel, Uint(uint64(spp)))
	mustSet(t, f, TagPhotometric, Uint(uint64(photometric)))
	mustSet(t, f, TagPlanarConfig, Uint(PlanarContig))
}

func openBytes(t *testing.T, data []byte, opts *Options) *File {
	t.Helper()
	if opts == nil {
		opts = quietOptions()
	}
	f, err := Open(bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return f
}

// writeStrips creates a file with one directory whose fields come from
// setup and whose strips are data.
func writeStrips(t *testing.T, opts *Options, setup func(f *File), data [][]byte) []byte {
	t.Helper()
	if opts == nil {
		opts = quietOptions()
	}
	ws := newMockWriteSeeker()
	f, err := Create(ws, opts)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	setup(f)
	for i, d := range data {
		if _, err := f.WriteEncodedStrip(uint32(i), d); err != nil {
			t.Fatalf("WriteEncodedStrip(%d): %v", i, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return ws.Bytes()
}

// pattern returns n bytes of a repeating, slowly varying pattern.
func pattern(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i/3) + seed
	}
	return b
}
