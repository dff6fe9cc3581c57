package compression

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

// JPEG errors
var (
	ErrJPEGCorrupted   = errors.New("compression: corrupted JPEG data")
	ErrJPEGUnsupported = errors.New("compression: unsupported JPEG sample layout")
)

// JPEGParams describes the strip or tile a JPEG payload carries.
type JPEGParams struct {
	Width, Height int
	// Samples is 1 for grayscale and 3 for RGB or YCbCr.
	Samples int
	// Raw keeps YCbCr output packed in TIFF subsampling blocks instead of
	// upsampling it to RGB.
	Raw bool
	// SubH and SubV are the YCbCr subsampling factors used when Raw is set.
	SubH, SubV int
	// Quality applies to encoding (1-100).
	Quality int
}

// spliceTables merges abbreviated table-only data (the JPEGTables tag) with
// an abbreviated strip stream so a baseline decoder sees one interchange
// stream.
func spliceTables(tables, src []byte) []byte {
	if len(tables) < 4 || len(src) < 2 || src[0] != 0xFF || src[1] != 0xD8 {
		return src
	}
	t := tables
	if t[len(t)-2] == 0xFF && t[len(t)-1] == 0xD9 {
		t = t[:len(t)-2]
	}
	out := make([]byte, 0, len(t)+len(src))
	out = append(out, t...)
	return append(out, src[2:]...)
}

// JPEGDecompressTo decodes one JPEG strip or tile (Compression=7) into dst.
func JPEGDecompressTo(dst, src, tables []byte, p JPEGParams) (int, error) {
	img, err := jpeg.Decode(bytes.NewReader(spliceTables(tables, src)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrJPEGCorrupted, err)
	}
	b := img.Bounds()
	w, h := min(b.Dx(), p.Width), min(b.Dy(), p.Height)

	switch p.Samples {
	case 1:
		n := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				n = y*p.Width + x
				if n >= len(dst) {
					return n, ErrJPEGCorrupted
				}
				dst[n] = g.Y
			}
		}
		return w * h, nil
	case 3:
		if yc, ok := img.(*image.YCbCr); ok && p.Raw {
			return packYCbCr(dst, yc, p), nil
		}
		n := 0
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				off := 3 * (y*p.Width + x)
				if off+3 > len(dst) {
					return n, ErrJPEGCorrupted
				}
				dst[off], dst[off+1], dst[off+2] = uint8(r>>8), uint8(g>>8), uint8(bl>>8)
				n = off + 3
			}
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: %d samples", ErrJPEGUnsupported, p.Samples)
}

// packYCbCr emits TIFF YCbCr blocks: SubH*SubV luma samples followed by one
// Cb and one Cr sample per block. Edge blocks replicate the last row and
// column.
func packYCbCr(dst []byte, yc *image.YCbCr, p JPEGParams) int {
	hs, vs := max(p.SubH, 1), max(p.SubV, 1)
	b := yc.Bounds()
	maxX, maxY := b.Dx()-1, b.Dy()-1
	n := 0
	for by := 0; by < p.Height; by += vs {
		for bx := 0; bx < p.Width; bx += hs {
			if n+hs*vs+2 > len(dst) {
				return n
			}
			for j := 0; j < vs; j++ {
				y := min(by+j, maxY)
				for i := 0; i < hs; i++ {
					x := min(bx+i, maxX)
					dst[n] = yc.Y[yc.YOffset(b.Min.X+x, b.Min.Y+y)]
					n++
				}
			}
			c := yc.COffset(b.Min.X+min(bx, maxX), b.Min.Y+min(by, maxY))
			dst[n], dst[n+1] = yc.Cb[c], yc.Cr[c]
			n += 2
		}
	}
	return n
}

// JPEGCompress encodes 8-bit grayscale or RGB samples as a complete JPEG
// interchange stream.
func JPEGCompress(src []byte, p JPEGParams) ([]byte, error) {
	r := image.Rect(0, 0, p.Width, p.Height)
	var img image.Image
	switch {
	case p.Samples == 1:
		g := image.NewGray(r)
		copy(g.Pix, src)
		img = g
	case p.Samples == 3 && !p.Raw:
		rgba := image.NewRGBA(r)
		for i, o := 0, 0; i+2 < len(src) && o+3 < len(rgba.Pix); i, o = i+3, o+4 {
			rgba.Pix[o], rgba.Pix[o+1], rgba.Pix[o+2], rgba.Pix[o+3] = src[i], src[i+1], src[i+2], 0xFF
		}
		img = rgba
	default:
		return nil, fmt.Errorf("%w: encoding %d samples (raw=%v)", ErrJPEGUnsupported, p.Samples, p.Raw)
	}
	q := p.Quality
	if q <= 0 {
		q = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
