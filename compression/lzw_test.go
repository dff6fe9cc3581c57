package compression

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestLZWRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	random := make([]byte, 20000)
	rng.Read(random)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"single", []byte{42}},
		{"text", bytes.Repeat([]byte("abcabcabd"), 50)},
		{"run", bytes.Repeat([]byte{0}, 70000)},
		// Random data fills the 12-bit table and forces clear codes.
		{"random", random},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := LZWCompress(tt.data)
			if len(packed) < 2 || packed[0] != 0x80 {
				t.Fatalf("stream must start with a 9-bit clear code, got % X", packed[:min(len(packed), 2)])
			}
			dst := make([]byte, len(tt.data))
			n, err := LZWDecompressTo(dst, packed)
			if err != nil {
				t.Fatalf("LZWDecompressTo() error = %v", err)
			}
			if n != len(tt.data) || !bytes.Equal(dst, tt.data) {
				t.Errorf("round trip mismatch (n=%d)", n)
			}
		})
	}
}

func TestLZWCompressKnownStream(t *testing.T) {
	// Clear, 'A', 'A' ... : codes 256, 65, 258(AA), EOI packed at 9 bits.
	got := LZWCompress([]byte("AAAA"))
	dst := make([]byte, 4)
	if _, err := LZWDecompressTo(dst, got); err != nil || string(dst) != "AAAA" {
		t.Errorf("decode of encoded AAAA = %q, %v", dst, err)
	}
}

func TestLZWOldStyleRejected(t *testing.T) {
	if _, err := LZWDecompressTo(make([]byte, 4), []byte{0x00, 0x01, 0x02}); err != ErrLZWOldStyle {
		t.Errorf("LZWDecompressTo(old style) error = %v, want ErrLZWOldStyle", err)
	}
}

func TestLZWShort(t *testing.T) {
	packed := LZWCompress([]byte{1, 2, 3})
	dst := make([]byte, 8)
	n, err := LZWDecompressTo(dst, packed)
	if err != ErrLZWShort || n != 3 {
		t.Errorf("LZWDecompressTo(short) = %d, %v; want 3, ErrLZWShort", n, err)
	}
}
