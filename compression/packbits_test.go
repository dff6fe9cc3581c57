package compression

import (
	"bytes"
	"testing"
)

// appleSample is the worked example from the PackBits technical note.
var (
	appleRaw = []byte{
		0xAA, 0xAA, 0xAA, 0x80, 0x00, 0x2A, 0xAA, 0xAA, 0xAA, 0xAA,
		0x80, 0x00, 0x2A, 0x22, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA,
		0xAA, 0xAA, 0xAA, 0xAA,
	}
	applePacked = []byte{
		0xFE, 0xAA, 0x02, 0x80, 0x00, 0x2A, 0xFD, 0xAA, 0x03, 0x80,
		0x00, 0x2A, 0x22, 0xF7, 0xAA,
	}
)

func TestPackBitsCompressAppleSample(t *testing.T) {
	got := PackBitsCompress(appleRaw, 0)
	if !bytes.Equal(got, applePacked) {
		t.Errorf("PackBitsCompress() = % X, want % X", got, applePacked)
	}
}

func TestPackBitsDecompressAppleSample(t *testing.T) {
	dst := make([]byte, len(appleRaw))
	n, err := PackBitsDecompressTo(dst, applePacked)
	if err != nil {
		t.Fatalf("PackBitsDecompressTo() error = %v", err)
	}
	if n != len(appleRaw) || !bytes.Equal(dst, appleRaw) {
		t.Errorf("PackBitsDecompressTo() = % X (%d), want % X", dst, n, appleRaw)
	}
}

func TestPackBitsNoOp(t *testing.T) {
	src := []byte{0x80, 0x01, 'a', 'b', 0x80}
	dst := make([]byte, 2)
	n, err := PackBitsDecompressTo(dst, src)
	if err != nil || n != 2 || string(dst) != "ab" {
		t.Errorf("PackBitsDecompressTo() = %q, %d, %v; want \"ab\", 2, nil", dst, n, err)
	}
}

func TestPackBitsRowsDoNotShareRuns(t *testing.T) {
	src := []byte{5, 5, 5, 5, 5, 5}
	got := PackBitsCompress(src, 3)
	want := []byte{0xFE, 5, 0xFE, 5}
	if !bytes.Equal(got, want) {
		t.Errorf("PackBitsCompress(rowSize=3) = % X, want % X", got, want)
	}
}

func TestPackBitsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"long run", bytes.Repeat([]byte{7}, 1000)},
		{"long literal", func() []byte {
			b := make([]byte, 300)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
		{"pairs", []byte{1, 1, 2, 2, 3, 3, 4}},
		{"single", []byte{9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackBitsCompress(tt.data, 0)
			dst := make([]byte, len(tt.data))
			if _, err := PackBitsDecompressTo(dst, packed); err != nil {
				t.Fatalf("PackBitsDecompressTo() error = %v", err)
			}
			if !bytes.Equal(dst, tt.data) {
				t.Errorf("round trip mismatch")
			}
		})
	}
}

func TestPackBitsErrors(t *testing.T) {
	dst := make([]byte, 4)
	if _, err := PackBitsDecompressTo(dst, []byte{0x05, 1, 2}); err != ErrPackBitsCorrupted {
		t.Errorf("truncated literal error = %v, want ErrPackBitsCorrupted", err)
	}
	if _, err := PackBitsDecompressTo(dst, []byte{0xF0, 1}); err != ErrPackBitsOverflow {
		t.Errorf("oversized run error = %v, want ErrPackBitsOverflow", err)
	}
	if n, err := PackBitsDecompressTo(dst, []byte{0x00, 1}); err != ErrPackBitsCorrupted || n != 1 {
		t.Errorf("short data = %d, %v; want 1, ErrPackBitsCorrupted", n, err)
	}
}
