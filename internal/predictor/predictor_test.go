package predictor

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	data := []byte{10, 12, 15, 15, 20, 18, 18, 18, 30, 1, 0}
	orig := append([]byte(nil), data...)

	Encode(data)
	if data[0] != 10 || data[1] != 2 || data[2] != 3 {
		t.Errorf("Encode() prefix = %v, want [10 2 3 ...]", data[:3])
	}
	Decode(data)
	if !bytes.Equal(data, orig) {
		t.Errorf("Decode(Encode(x)) = %v, want %v", data, orig)
	}
}

func TestRowRoundTrip(t *testing.T) {
	for _, bits := range []int{8, 16, 32, 64} {
		for _, stride := range []int{1, 3} {
			width := 7
			row := make([]byte, width*stride*bits/8)
			for i := range row {
				row[i] = byte(i*37 + 11)
			}
			orig := append([]byte(nil), row...)
			if err := EncodeRow(row, stride, bits); err != nil {
				t.Fatalf("EncodeRow(bits=%d) error = %v", bits, err)
			}
			if bytes.Equal(row, orig) {
				t.Errorf("EncodeRow(bits=%d, stride=%d) left the row unchanged", bits, stride)
			}
			if err := DecodeRow(row, stride, bits); err != nil {
				t.Fatalf("DecodeRow(bits=%d) error = %v", bits, err)
			}
			if !bytes.Equal(row, orig) {
				t.Errorf("bits=%d stride=%d round trip = %v, want %v", bits, stride, row, orig)
			}
		}
	}
}

func TestDecodeRow16(t *testing.T) {
	row := make([]byte, 6)
	binary.NativeEndian.PutUint16(row[0:], 1000)
	binary.NativeEndian.PutUint16(row[2:], 5)
	binary.NativeEndian.PutUint16(row[4:], 0xFFFF) // -1
	if err := DecodeRow(row, 1, 16); err != nil {
		t.Fatal(err)
	}
	want := []uint16{1000, 1005, 1004}
	for i, w := range want {
		if got := binary.NativeEndian.Uint16(row[2*i:]); got != w {
			t.Errorf("sample %d = %d, want %d", i, got, w)
		}
	}
}

func TestUnsupportedBits(t *testing.T) {
	if err := EncodeRow(make([]byte, 4), 1, 12); err != ErrUnsupportedBits {
		t.Errorf("EncodeRow(bits=12) error = %v, want ErrUnsupportedBits", err)
	}
	if err := DecodeFloatRow(make([]byte, 4), 1, 8, nil); err != ErrUnsupportedBits {
		t.Errorf("DecodeFloatRow(bits=8) error = %v, want ErrUnsupportedBits", err)
	}
}

func TestFloatRowRoundTrip(t *testing.T) {
	vals := []float32{1.0, 1.5, 2.0, -3.25, 100.125, 0}
	row := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.NativeEndian.PutUint32(row[4*i:], math.Float32bits(v))
	}
	orig := append([]byte(nil), row...)

	if err := EncodeFloatRow(row, 1, 32, nil); err != nil {
		t.Fatalf("EncodeFloatRow() error = %v", err)
	}
	// The first byte of the first plane is the sign/exponent byte of 1.0.
	if row[0] != 0x3F {
		t.Errorf("first encoded byte = 0x%02X, want 0x3F", row[0])
	}
	if err := DecodeFloatRow(row, 1, 32, make([]byte, len(row))); err != nil {
		t.Fatalf("DecodeFloatRow() error = %v", err)
	}
	if !bytes.Equal(row, orig) {
		t.Errorf("float round trip = %v, want %v", row, orig)
	}
}
