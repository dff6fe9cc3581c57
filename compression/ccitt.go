package compression

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/image/ccitt"
)

// ErrFaxCorrupted is returned when CCITT data cannot be decoded.
var ErrFaxCorrupted = errors.New("compression: corrupted CCITT fax data")

// FaxMode selects the CCITT variant carried by a strip.
type FaxMode int

const (
	// FaxRLE is Modified Huffman with byte-aligned rows (Compression=2).
	FaxRLE FaxMode = iota
	// FaxGroup3 is T.4 one-dimensional coding (Compression=3).
	FaxGroup3
	// FaxGroup4 is T.6 two-dimensional coding (Compression=4).
	FaxGroup4
)

// FaxParams describes the bilevel raster being decoded.
type FaxParams struct {
	Mode  FaxMode
	Width int
	Rows  int
	// LSBFirst is set when the fill order stores bits least significant first.
	LSBFirst bool
	// WhiteIsZero inverts the decoder's native 1=white output.
	WhiteIsZero bool
}

// FaxDecompressTo decodes CCITT data into packed one-bit rows in dst.
func FaxDecompressTo(dst, src []byte, p FaxParams) (int, error) {
	order := ccitt.MSB
	if p.LSBFirst {
		order = ccitt.LSB
	}
	sf := ccitt.Group3
	if p.Mode == FaxGroup4 {
		sf = ccitt.Group4
	}
	opts := &ccitt.Options{
		Align:  p.Mode == FaxRLE,
		Invert: p.WhiteIsZero,
	}
	r := ccitt.NewReader(bytes.NewReader(src), order, sf, p.Width, p.Rows, opts)
	n, err := io.ReadFull(r, dst)
	if err != nil {
		return n, ErrFaxCorrupted
	}
	return n, nil
}
