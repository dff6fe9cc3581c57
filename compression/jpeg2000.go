package compression

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/mrjoshuak/go-jpeg2000"
)

// JPEG 2000 errors
var (
	ErrJ2KCorrupted   = errors.New("compression: corrupted JPEG 2000 data")
	ErrJ2KUnsupported = errors.New("compression: unsupported JPEG 2000 sample layout")
)

// J2KParams describes the contiguous raster carried by one strip or tile.
type J2KParams struct {
	Width, Height int
	// Samples is 1 (gray), 3 (RGB) or 4 (RGBA).
	Samples int
	// Bits is 8 or 16.
	Bits int
	// Order is the byte order of 16-bit samples in the raw buffer.
	Order binary.ByteOrder
	// Lossless selects the reversible 5-3 wavelet.
	Lossless bool
	// Quality applies to lossy encoding (1-100).
	Quality int
}

func (p J2KParams) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrJ2KUnsupported, p.Width, p.Height)
	}
	if p.Samples != 1 && p.Samples != 3 && p.Samples != 4 {
		return fmt.Errorf("%w: %d samples", ErrJ2KUnsupported, p.Samples)
	}
	if p.Bits != 8 && p.Bits != 16 {
		return fmt.Errorf("%w: %d bits", ErrJ2KUnsupported, p.Bits)
	}
	return nil
}

func (p J2KParams) order() binary.ByteOrder {
	if p.Order == nil {
		return binary.BigEndian
	}
	return p.Order
}

// rasterImage wraps interleaved samples in the standard library image type
// matching their layout so the encoder sees the right component count.
func rasterImage(src []byte, p J2KParams) image.Image {
	r := image.Rect(0, 0, p.Width, p.Height)
	bo := p.order()
	switch {
	case p.Samples == 1 && p.Bits == 8:
		img := image.NewGray(r)
		copy(img.Pix, src)
		return img
	case p.Samples == 1:
		img := image.NewGray16(r)
		for i := 0; i+1 < len(img.Pix) && i+1 < len(src); i += 2 {
			binary.BigEndian.PutUint16(img.Pix[i:], bo.Uint16(src[i:]))
		}
		return img
	case p.Bits == 8:
		img := image.NewNRGBA(r)
		for i, o := 0, 0; o+3 < len(img.Pix) && i+p.Samples <= len(src); i, o = i+p.Samples, o+4 {
			img.Pix[o], img.Pix[o+1], img.Pix[o+2] = src[i], src[i+1], src[i+2]
			img.Pix[o+3] = 0xFF
			if p.Samples == 4 {
				img.Pix[o+3] = src[i+3]
			}
		}
		return img
	default:
		img := image.NewNRGBA64(r)
		step := 2 * p.Samples
		for i, o := 0, 0; o+7 < len(img.Pix) && i+step <= len(src); i, o = i+step, o+8 {
			for c := 0; c < 3; c++ {
				binary.BigEndian.PutUint16(img.Pix[o+2*c:], bo.Uint16(src[i+2*c:]))
			}
			a := uint16(0xFFFF)
			if p.Samples == 4 {
				a = bo.Uint16(src[i+6:])
			}
			binary.BigEndian.PutUint16(img.Pix[o+6:], a)
		}
		return img
	}
}

// J2KCompress encodes a raster as a raw JPEG 2000 codestream
// (Compression=34712).
func J2KCompress(src []byte, p J2KParams) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	opts := &jpeg2000.Options{
		Format:         jpeg2000.FormatJ2K,
		Lossless:       p.Lossless,
		Quality:        p.Quality,
		NumResolutions: 6,
		NumLayers:      1,
	}
	var buf bytes.Buffer
	if err := jpeg2000.Encode(&buf, rasterImage(src, p), opts); err != nil {
		return nil, fmt.Errorf("jpeg2000: encode failed: %w", err)
	}
	return buf.Bytes(), nil
}

// J2KDecompressTo decodes a JPEG 2000 codestream into interleaved samples.
func J2KDecompressTo(dst, src []byte, p J2KParams) (int, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	img, err := jpeg2000.Decode(bytes.NewReader(src))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrJ2KCorrupted, err)
	}
	b := img.Bounds()
	w, h := min(b.Dx(), p.Width), min(b.Dy(), p.Height)
	bps := p.Bits / 8
	pixel := p.Samples * bps
	bo := p.order()

	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*p.Width + x) * pixel
			if off+pixel > len(dst) {
				return n, ErrJ2KCorrupted
			}
			c := img.At(b.Min.X+x, b.Min.Y+y)
			var comps [4]uint16
			if p.Samples == 1 {
				comps[0] = color.Gray16Model.Convert(c).(color.Gray16).Y
			} else {
				nc := color.NRGBA64Model.Convert(c).(color.NRGBA64)
				comps = [4]uint16{nc.R, nc.G, nc.B, nc.A}
			}
			for s := 0; s < p.Samples; s++ {
				if bps == 1 {
					dst[off+s] = uint8(comps[s] >> 8)
				} else {
					bo.PutUint16(dst[off+2*s:], comps[s])
				}
			}
			n = off + pixel
		}
	}
	if n < p.Width*p.Height*pixel {
		return n, ErrJ2KCorrupted
	}
	return n, nil
}
