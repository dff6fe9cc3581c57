package endian

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestReaderByteOrders(t *testing.T) {
	tests := []struct {
		name  string
		order binary.ByteOrder
		data  []byte
	}{
		{"little", binary.LittleEndian, []byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12}},
		{"big", binary.BigEndian, []byte{0x12, 0x34, 0x12, 0x34, 0x56, 0x78}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data, tt.order)
			u16, err := r.ReadUint16()
			if err != nil {
				t.Fatalf("ReadUint16() error = %v", err)
			}
			if u16 != 0x1234 {
				t.Errorf("ReadUint16() = 0x%04X, want 0x1234", u16)
			}
			u32, err := r.ReadUint32()
			if err != nil {
				t.Fatalf("ReadUint32() error = %v", err)
			}
			if u32 != 0x12345678 {
				t.Errorf("ReadUint32() = 0x%08X, want 0x12345678", u32)
			}
			if r.Len() != 0 {
				t.Errorf("Len() = %d, want 0", r.Len())
			}
			if _, err := r.ReadByte(); err != ErrShortBuffer {
				t.Errorf("ReadByte() past end error = %v, want ErrShortBuffer", err)
			}
		})
	}
}

func TestReaderBounds(t *testing.T) {
	r := NewReader([]byte{1, 2, 3}, binary.BigEndian)
	if _, err := r.ReadUint32(); err != ErrShortBuffer {
		t.Errorf("ReadUint32() error = %v, want ErrShortBuffer", err)
	}
	if err := r.Skip(-1); err != ErrNegativeSize {
		t.Errorf("Skip(-1) error = %v, want ErrNegativeSize", err)
	}
	if err := r.Skip(4); err != ErrShortBuffer {
		t.Errorf("Skip(4) error = %v, want ErrShortBuffer", err)
	}
	b, err := r.ReadBytes(2)
	if err != nil || !bytes.Equal(b, []byte{1, 2}) {
		t.Errorf("ReadBytes(2) = %v, %v", b, err)
	}
}

func TestBufferWriter(t *testing.T) {
	w := NewBufferWriter(0, binary.BigEndian)
	w.WriteUint16(0x4D4D)
	w.WriteUint16(42)
	w.WriteUint32(8)
	want := []byte{'M', 'M', 0, 42, 0, 0, 0, 8}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("Bytes() = %v, want %v", w.Bytes(), want)
	}
	if err := w.PutUint32At(4, 16); err != nil {
		t.Fatalf("PutUint32At() error = %v", err)
	}
	if w.Bytes()[7] != 16 {
		t.Errorf("PutUint32At did not patch value: %v", w.Bytes())
	}
	if err := w.PutUint32At(6, 1); err != ErrShortBuffer {
		t.Errorf("PutUint32At(6) error = %v, want ErrShortBuffer", err)
	}
	w.WriteByte(1)
	w.Pad(4)
	if w.Len() != 12 {
		t.Errorf("Len() after Pad(4) = %d, want 12", w.Len())
	}
}

func TestFloatRoundTrip(t *testing.T) {
	w := NewBufferWriter(16, binary.LittleEndian)
	w.WriteFloat32(1.5)
	w.WriteFloat64(-2.25)
	r := NewReader(w.Bytes(), binary.LittleEndian)
	f32, _ := r.ReadFloat32()
	f64, _ := r.ReadFloat64()
	if f32 != 1.5 || f64 != -2.25 {
		t.Errorf("floats = %v, %v; want 1.5, -2.25", f32, f64)
	}
}

func TestIsNative(t *testing.T) {
	if IsNative(binary.LittleEndian) == IsNative(binary.BigEndian) {
		t.Error("exactly one of little/big endian must be native")
	}
}
