package tiffutil

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	xtiff "golang.org/x/image/tiff"

	"github.com/mrjoshuak/go-tiff/tiff"
)

// Files written by this module must decode with the x/image reader.
func TestEncodeReadableByXImage(t *testing.T) {
	r := image.Rect(0, 0, 21, 10)
	gray := image.NewGray(r)
	rgba := image.NewRGBA(r)
	pal := image.NewPaletted(r, color.Palette{
		color.RGBA{0, 0, 0, 0xff}, color.RGBA{0xff, 0xff, 0xff, 0xff},
		color.RGBA{0xc0, 0x10, 0x20, 0xff},
	})
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			gray.SetGray(x, y, color.Gray{uint8(x*12 + y)})
			a := uint8(255 - y*20)
			rgba.SetRGBA(x, y, color.RGBA{uint8(x) * a / 255, a / 2, a, a})
			pal.SetColorIndex(x, y, uint8((x*y)%3))
		}
	}

	images := []struct {
		name string
		m    image.Image
	}{
		{"gray", gray},
		{"rgba", rgba},
		{"paletted", pal},
	}
	schemes := []struct {
		name      string
		scheme    uint16
		predictor bool
	}{
		{"none", tiff.CompressionNone, false},
		{"lzw", tiff.CompressionLZW, false},
		{"lzw predictor", tiff.CompressionLZW, true},
		{"packbits", tiff.CompressionPackBits, false},
		{"deflate predictor", tiff.CompressionAdobeDeflate, true},
	}
	for _, im := range images {
		for _, s := range schemes {
			t.Run(im.name+"/"+s.name, func(t *testing.T) {
				var buf bytes.Buffer
				opts := &tiff.EncodeOptions{
					Compression:  s.scheme,
					Predictor:    s.predictor,
					RowsPerStrip: 3,
					Options:      quietOptions(),
				}
				if err := tiff.Encode(&buf, im.m, opts); err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				got, err := xtiff.Decode(bytes.NewReader(buf.Bytes()))
				if err != nil {
					t.Fatalf("x/image Decode() error = %v", err)
				}
				if got.Bounds() != r {
					t.Fatalf("bounds = %v, want %v", got.Bounds(), r)
				}
				for y := r.Min.Y; y < r.Max.Y; y++ {
					for x := r.Min.X; x < r.Max.X; x++ {
						g := color.RGBAModel.Convert(got.At(x, y))
						w := color.RGBAModel.Convert(im.m.At(x, y))
						if g != w {
							t.Fatalf("pixel (%d, %d) = %v, want %v", x, y, g, w)
						}
					}
				}
			})
		}
	}
}
