package compression

import (
	"bytes"
	"errors"
	"testing"
)

func TestFaxDecompressGroup4White(t *testing.T) {
	// Two all-white rows, each a single V0 code against a white reference.
	src := []byte{0xC0}

	tests := []struct {
		name        string
		whiteIsZero bool
		want        []byte
	}{
		{"white is one", false, []byte{0xFF, 0xFF}},
		{"white is zero", true, []byte{0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, 2)
			n, err := FaxDecompressTo(dst, src, FaxParams{
				Mode:        FaxGroup4,
				Width:       8,
				Rows:        2,
				WhiteIsZero: tt.whiteIsZero,
			})
			if err != nil {
				t.Fatalf("FaxDecompressTo() error = %v", err)
			}
			if n != 2 || !bytes.Equal(dst, tt.want) {
				t.Errorf("FaxDecompressTo() = % X (n=%d), want % X", dst, n, tt.want)
			}
		})
	}
}

func TestFaxDecompressTruncated(t *testing.T) {
	dst := make([]byte, 4)
	_, err := FaxDecompressTo(dst, nil, FaxParams{Mode: FaxGroup4, Width: 16, Rows: 2})
	if !errors.Is(err, ErrFaxCorrupted) {
		t.Errorf("FaxDecompressTo(empty) error = %v, want ErrFaxCorrupted", err)
	}
}
