package gotiff_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"github.com/mrjoshuak/go-tiff/tiff"
)

// Example_basicRead demonstrates reading the strips of a TIFF file.
func Example_basicRead() {
	f, err := tiff.OpenFile("image.tif", nil)
	if err != nil {
		fmt.Println("Error opening TIFF:", err)
		return
	}
	defer f.Close()

	d := f.Directory()
	fmt.Printf("Image size: %dx%d\n", d.Width(), d.Length())
	fmt.Printf("Compression: %s\n", tiff.CompressionName(d.Compression()))

	buf := make([]byte, f.StripSize())
	for s := uint32(0); s < f.NumberOfStrips(); s++ {
		if _, err := f.ReadEncodedStrip(s, buf); err != nil {
			fmt.Println("Error reading strip:", err)
			return
		}
	}
	fmt.Println("Successfully read image data")
}

// Example_basicWrite demonstrates writing an RGB image strip by strip.
func Example_basicWrite() {
	const width, height = 640, 480

	f, err := tiff.CreateFile("out.tif", nil)
	if err != nil {
		fmt.Println("Error creating TIFF:", err)
		return
	}

	set := func(tag tiff.Tag, v tiff.Value) {
		if err == nil {
			err = f.SetField(tag, v)
		}
	}
	set(tiff.TagImageWidth, tiff.Uint(width))
	set(tiff.TagImageLength, tiff.Uint(height))
	set(tiff.TagBitsPerSample, tiff.Uint(8))
	set(tiff.TagSamplesPerPixel, tiff.Uint(3))
	set(tiff.TagPhotometric, tiff.Uint(tiff.PhotometricRGB))
	set(tiff.TagPlanarConfig, tiff.Uint(tiff.PlanarContig))
	set(tiff.TagCompression, tiff.Uint(tiff.CompressionLZW))
	set(tiff.TagPredictor, tiff.Uint(2))
	rps := f.DefaultStripSize(0)
	set(tiff.TagRowsPerStrip, tiff.Uint(uint64(rps)))
	if err != nil {
		fmt.Println("Error setting fields:", err)
		f.Close()
		return
	}

	// Fill with a gradient
	row := make([]byte, 3*width)
	for y := uint32(0); y < height; y++ {
		for x := 0; x < width; x++ {
			row[3*x] = byte(x)
			row[3*x+1] = byte(y)
			row[3*x+2] = 128
		}
		if err := f.WriteScanline(row, y, 0); err != nil {
			fmt.Println("Error writing scanline:", err)
			f.Close()
			return
		}
	}

	if err := f.Close(); err != nil {
		fmt.Println("Error closing TIFF:", err)
		return
	}
	fmt.Println("Successfully wrote TIFF data")
}

// Example_rgbaRaster demonstrates converting any supported layout to
// packed RGBA pixels.
func Example_rgbaRaster() {
	f, err := tiff.OpenFile("image.tif", nil)
	if err != nil {
		fmt.Println("Error opening TIFF:", err)
		return
	}
	defer f.Close()

	if ok, reason := tiff.RGBAImageOK(f); !ok {
		fmt.Println("Cannot convert:", reason)
		return
	}
	d := f.Directory()
	raster := make([]uint32, int(d.Width())*int(d.Length()))
	err = f.ReadRGBAImageOriented(d.Width(), d.Length(), raster, tiff.OrientationTopLeft, false)
	if err != nil {
		fmt.Println("Some strips failed:", err)
	}
	r, g, b, a := tiff.Unpack(raster[0])
	fmt.Printf("Top left pixel: %d %d %d %d\n", r, g, b, a)
}

// Example_imagePackage demonstrates the image.Image integration.
func Example_imagePackage() {
	src := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range src.Pix {
		src.Pix[i] = uint8(i * 20)
	}

	var buf bytes.Buffer
	if err := tiff.Encode(&buf, src, &tiff.EncodeOptions{Compression: tiff.CompressionAdobeDeflate}); err != nil {
		fmt.Println("Error encoding:", err)
		return
	}

	img, format, err := image.Decode(&buf)
	if err != nil {
		fmt.Println("Error decoding:", err)
		return
	}
	c := color.GrayModel.Convert(img.At(3, 2)).(color.Gray)
	fmt.Println(format, img.Bounds().Dx(), img.Bounds().Dy(), c.Y)
	// Output: tiff 4 3 220
}

// Example_tiledImage demonstrates random access to a tiled image.
func Example_tiledImage() {
	f, err := tiff.OpenFile("tiled.tif", nil)
	if err != nil {
		fmt.Println("Error opening TIFF:", err)
		return
	}
	defer f.Close()

	if !f.IsTiled() {
		fmt.Println("Not a tiled image")
		return
	}
	m, err := tiff.NewImage(f)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	// Only the tiles touched are decoded.
	fmt.Println(m.At(1000, 1000))
	if err := m.Err(); err != nil {
		fmt.Println("Decode error:", err)
	}
}

// Example_multiPage demonstrates walking the directories of a
// multi-page file.
func Example_multiPage() {
	f, err := tiff.OpenFile("pages.tif", nil)
	if err != nil {
		fmt.Println("Error opening TIFF:", err)
		return
	}
	defer f.Close()

	for page := 0; ; page++ {
		d := f.Directory()
		fmt.Printf("page %d: %dx%d\n", page, d.Width(), d.Length())
		if err := f.ReadDirectory(); err == io.EOF {
			break
		} else if err != nil {
			fmt.Println("Error:", err)
			return
		}
	}
}

// Example_customTags demonstrates registering private tags.
func Example_customTags() {
	const tagScanner tiff.Tag = 65100

	opts := tiff.DefaultOptions()
	opts.Extender = func(f *tiff.File) {
		f.MergeFieldInfo([]tiff.FieldInfo{{
			Tag:        tagScanner,
			ReadCount:  tiff.CountVariable,
			WriteCount: tiff.CountVariable,
			Type:       tiff.TypeASCII,
			Bit:        tiff.FieldCustom,
			OkToChange: true,
			Name:       "ScannerModel",
		}})
	}
	f, err := tiff.OpenFile("scan.tif", &opts)
	if err != nil {
		fmt.Println("Error opening TIFF:", err)
		return
	}
	defer f.Close()

	if v, err := f.GetField(tagScanner); err == nil {
		s, _ := v.Text()
		fmt.Println("Scanned with", s)
	}
	f.PrintDirectory(os.Stdout)
}
