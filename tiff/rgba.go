package tiff

import (
	"errors"
	"fmt"
)

// Pack packs 8-bit components into the RGBA raster pixel format: red in
// the low byte, alpha in the high byte.
func Pack(r, g, b, a uint8) uint32 {
	return uint32(r) | uint32(g)<<8 | uint32(b)<<16 | uint32(a)<<24
}

// Unpack splits a raster pixel into its components.
func Unpack(p uint32) (r, g, b, a uint8) {
	return uint8(p), uint8(p >> 8), uint8(p >> 16), uint8(p >> 24)
}

// rowFunc converts n pixels of one row. src holds the row of each sample
// plane; contiguous data has a single plane.
type rowFunc func(img *RGBAImage, dst []uint32, src [][]byte, n int)

// RGBAImage converts the image data of a directory into packed RGBA
// pixels. It is built for the current directory of a File and must be
// rebuilt after the handle moves to another directory.
type RGBAImage struct {
	f *File

	// StopOnError ends Get at the first strip or tile that fails to
	// decode. Otherwise failed regions are left blank and their errors
	// returned together once the raster is complete.
	StopOnError bool
	// ReqOrientation is the orientation of the raster Get fills.
	ReqOrientation uint16

	width, height   uint32
	bitsPerSample   uint16
	samplesPerPixel uint16
	sampleFormat    uint16
	photometric     uint16
	orientation     uint16
	alpha           uint16 // 0 or an ExtraSample* alpha kind
	isContig        bool
	colorChannels   int

	rowOffset, colOffset uint32

	put      rowFunc
	ycbcrH   int // subsampling of block-coded YCbCr, 0 otherwise
	ycbcrV   int
	bwmap    []uint32 // 256 entries of pixelsPerByte pixels
	palmap   []uint32
	perByte  int
	graymap  []uint8 // sample value to intensity
	cmap     [3][]uint16
	ycbcr    *ycbcrConverter
	cielab   *labConverter
	planes   int // sample planes read per segment
	segBuf   [][]byte
	pixelBuf []uint32
}

// NewRGBAImage prepares the current directory of f for RGBA conversion.
// Unsupported layouts fail with ErrUnsupported and a reason.
func NewRGBAImage(f *File, stopOnError bool) (*RGBAImage, error) {
	img, err := newRGBAImage(f, false)
	if err != nil {
		return nil, f.fail("RGBAImage", err)
	}
	img.StopOnError = stopOnError
	return img, nil
}

// RGBAImageOK reports whether the current directory of f can be
// converted to RGBA, and if not, why.
func RGBAImageOK(f *File) (bool, string) {
	if _, err := newRGBAImage(f, true); err != nil {
		return false, err.Error()
	}
	return true, ""
}

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

func newRGBAImage(f *File, probe bool) (*RGBAImage, error) {
	d := f.dir
	img := &RGBAImage{
		f:               f,
		ReqOrientation:  OrientationBotLeft,
		width:           d.width,
		height:          d.length,
		bitsPerSample:   d.bitsPerSample,
		samplesPerPixel: d.samplesPerPixel,
		sampleFormat:    d.sampleFormat,
		orientation:     d.orientation,
		isContig:        !(d.planarConfig == PlanarSeparate && d.samplesPerPixel > 1),
	}
	switch img.bitsPerSample {
	case 1, 2, 4, 8, 16:
	default:
		return nil, unsupportedf("can not handle images with %d-bit samples", img.bitsPerSample)
	}
	if img.sampleFormat == SampleFormatIEEEFP && img.bitsPerSample != 16 {
		return nil, unsupportedf("can not handle %d-bit floating point samples", img.bitsPerSample)
	}

	extra := d.extraSamples
	if len(extra) > 0 {
		switch extra[0] {
		case ExtraSampleUnspecified:
			// Writers commonly leave the alpha kind unspecified.
			if img.samplesPerPixel > 3 {
				img.alpha = ExtraSampleAssocAlpha
			}
		case ExtraSampleAssocAlpha, ExtraSampleUnassAlpha:
			img.alpha = extra[0]
		}
	}
	img.colorChannels = int(img.samplesPerPixel) - len(extra)

	photometric, ok := d.Photometric()
	if !ok {
		switch img.colorChannels {
		case 1:
			photometric = PhotometricMinIsBlack
			if isFaxScheme(d.compression) {
				photometric = PhotometricMinIsWhite
			}
		case 3:
			photometric = PhotometricRGB
		default:
			return nil, unsupportedf("missing needed PhotometricInterpretation tag")
		}
	}

	switch photometric {
	case PhotometricMinIsWhite, PhotometricMinIsBlack, PhotometricPalette:
		if img.isContig && img.samplesPerPixel != 1 && img.bitsPerSample < 8 {
			return nil, unsupportedf("can not handle contiguous data with Photometric=%d, Samples/pixel=%d and Bits/Sample=%d",
				photometric, img.samplesPerPixel, img.bitsPerSample)
		}
		if photometric == PhotometricPalette {
			if img.bitsPerSample > 8 {
				return nil, unsupportedf("can not handle %d-bit palette images", img.bitsPerSample)
			}
			if img.samplesPerPixel != 1 {
				return nil, unsupportedf("can not handle palette images with %d samples per pixel", img.samplesPerPixel)
			}
			if d.colormap[0] == nil {
				return nil, unsupportedf("missing required Colormap tag")
			}
		}
	case PhotometricYCbCr:
		if img.isContig && d.compression == CompressionJPEG {
			// The JPEG codec can deliver RGB itself.
			if !probe {
				if err := f.SetField(TagJPEGColorMode, Uint(JPEGColorModeRGB)); err != nil {
					return nil, err
				}
			}
			photometric = PhotometricRGB
			break
		}
		if img.bitsPerSample != 8 {
			return nil, unsupportedf("can not handle YCbCr images with %d-bit samples", img.bitsPerSample)
		}
		if !img.isContig {
			if d.ycbcrSubsampling != [2]uint16{1, 1} {
				return nil, unsupportedf("can not handle subsampled YCbCr with separate planes")
			}
		}
	case PhotometricRGB:
		if img.colorChannels < 3 {
			return nil, unsupportedf("can not handle RGB image with %d color channels", img.colorChannels)
		}
	case PhotometricSeparated:
		inkset := uint64(InkSetCMYK)
		if v, ok := d.customValue(TagInkSet); ok {
			inkset, _ = v.Uint()
		}
		if inkset != InkSetCMYK {
			return nil, unsupportedf("can not handle separated image with InkSet=%d", inkset)
		}
		if img.samplesPerPixel < 4 {
			return nil, unsupportedf("can not handle separated image with Samples/pixel=%d", img.samplesPerPixel)
		}
	case PhotometricCIELab, PhotometricICCLab, PhotometricITULab:
		if img.samplesPerPixel != 3 || (img.bitsPerSample != 8 && img.bitsPerSample != 16) {
			return nil, unsupportedf("can not handle L*a*b* image with Samples/pixel=%d and Bits/Sample=%d",
				img.samplesPerPixel, img.bitsPerSample)
		}
		if !img.isContig {
			return nil, unsupportedf("can not handle L*a*b* image with separate planes")
		}
	default:
		return nil, unsupportedf("can not handle image with Photometric=%s", PhotometricName(photometric))
	}
	img.photometric = photometric

	if err := img.pick(); err != nil {
		return nil, err
	}
	return img, nil
}

// Width returns the image width in pixels.
func (img *RGBAImage) Width() uint32 { return img.width }

// Height returns the image height in pixels.
func (img *RGBAImage) Height() uint32 { return img.height }

// SetOffset makes Get start at column col and row row of the image.
func (img *RGBAImage) SetOffset(col, row uint32) {
	img.colOffset, img.rowOffset = col, row
}

// Get fills the w x h raster with the image region starting at the
// current offset, in ReqOrientation. Pixels outside the image are zero.
func (img *RGBAImage) Get(raster []uint32, w, h uint32) error {
	if err := img.get(raster, w, h); err != nil {
		return img.f.fail("RGBAImageGet", err)
	}
	return nil
}

func (img *RGBAImage) get(raster []uint32, w, h uint32) error {
	if uint64(len(raster)) < uint64(w)*uint64(h) {
		return fmt.Errorf("%w: raster of %d pixels, %dx%d needed", ErrBadValue, len(raster), w, h)
	}
	raster = raster[:int(w)*int(h)]
	clear(raster)
	if img.colOffset >= img.width || img.rowOffset >= img.height {
		return nil
	}
	rw := min(w, img.width-img.colOffset)
	rh := min(h, img.height-img.rowOffset)

	var errs []error
	err := img.forSegments(img.colOffset, img.rowOffset, rw, rh, func(s *rgbaSegment) error {
		if err := img.readSegment(s); err != nil {
			if img.StopOnError {
				return err
			}
			errs = append(errs, err)
			return nil
		}
		img.copySegment(raster, int(w), s)
		return nil
	})
	if err != nil {
		return err
	}
	applyFlip(raster, int(w), int(h), orientationFlip(img.orientation, img.ReqOrientation))
	return errors.Join(errs...)
}

// rgbaSegment is a strip or tile overlapping the region being read.
type rgbaSegment struct {
	x, y uint32 // image position of the segment's first pixel
	w, h uint32 // decoded extent
	// region of the segment that lands in the raster, in segment
	// coordinates
	x0, y0, x1, y1 uint32
	// raster position of (x0, y0)
	rx, ry uint32
	index  []uint32 // one per plane
}

// forSegments calls fn for every strip or tile intersecting the region
// (x, y, w, h), top to bottom and left to right.
func (img *RGBAImage) forSegments(x, y, w, h uint32, fn func(*rgbaSegment) error) error {
	f := img.f
	d := f.dir
	clip := func(s *rgbaSegment) {
		s.x0 = max(x, s.x) - s.x
		s.y0 = max(y, s.y) - s.y
		s.x1 = min(x+w, s.x+s.w) - s.x
		s.y1 = min(y+h, s.y+s.h) - s.y
		s.rx = s.x + s.x0 - x
		s.ry = s.y + s.y0 - y
	}
	if f.IsTiled() {
		tw, th, _ := d.tileDims()
		for ty := y / th * th; ty < y+h; ty += th {
			for tx := x / tw * tw; tx < x+w; tx += tw {
				s := &rgbaSegment{x: tx, y: ty, w: tw, h: th}
				for p := 0; p < img.planes; p++ {
					s.index = append(s.index, f.ComputeTile(tx, ty, 0, uint16(p)))
				}
				clip(s)
				if err := fn(s); err != nil {
					return err
				}
			}
		}
		return nil
	}
	rps := min(d.rowsPerStrip, d.length)
	if rps == 0 {
		return fmt.Errorf("%w: zero RowsPerStrip", ErrBadDirectory)
	}
	for sy := y / rps * rps; sy < y+h; sy += rps {
		strip := f.ComputeStrip(sy, 0)
		s := &rgbaSegment{x: 0, y: sy, w: d.width, h: f.stripRows(strip)}
		for p := 0; p < img.planes; p++ {
			s.index = append(s.index, strip+uint32(p)*d.stripsPerImage)
		}
		clip(s)
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

// readSegment decodes every plane of s into segBuf.
func (img *RGBAImage) readSegment(s *rgbaSegment) error {
	f := img.f
	tiled := f.IsTiled()
	size := f.StripSize()
	if tiled {
		size = f.TileSize()
	}
	if len(img.segBuf) != len(s.index) {
		img.segBuf = make([][]byte, len(s.index))
	}
	for p, idx := range s.index {
		if cap(img.segBuf[p]) < size {
			img.segBuf[p] = make([]byte, size)
		}
		buf := img.segBuf[p][:size]
		clear(buf)
		img.segBuf[p] = buf
		var err error
		if tiled {
			_, err = f.ReadEncodedTile(idx, buf)
		} else {
			_, err = f.ReadEncodedStrip(idx, buf)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// rowBytes returns the decoded size of one row of one plane in the
// segments being read.
func (img *RGBAImage) rowBytes() int {
	if img.f.IsTiled() {
		return img.f.TileRowSize()
	}
	return img.f.ScanlineSize()
}

// copySegment converts the visible rows of s and stores them in raster.
func (img *RGBAImage) copySegment(raster []uint32, stride int, s *rgbaSegment) {
	sw := int(s.w)
	if img.ycbcrH > 0 {
		n := sw * int(s.h)
		if cap(img.pixelBuf) < n {
			img.pixelBuf = make([]uint32, n)
		}
		pix := img.pixelBuf[:n]
		img.putYCbCrBlocks(pix, img.segBuf[0], sw, int(s.h))
		for r := s.y0; r < s.y1; r++ {
			dst := raster[int(s.ry+r-s.y0)*stride+int(s.rx):]
			copy(dst[:s.x1-s.x0], pix[int(r)*sw+int(s.x0):int(r)*sw+int(s.x1)])
		}
		return
	}
	if cap(img.pixelBuf) < sw {
		img.pixelBuf = make([]uint32, sw)
	}
	pix := img.pixelBuf[:sw]
	rb := img.rowBytes()
	src := make([][]byte, len(img.segBuf))
	for r := s.y0; r < s.y1; r++ {
		for p := range src {
			src[p] = img.segBuf[p][int(r)*rb : int(r+1)*rb]
		}
		img.put(img, pix, src, sw)
		dst := raster[int(s.ry+r-s.y0)*stride+int(s.rx):]
		copy(dst[:s.x1-s.x0], pix[s.x0:s.x1])
	}
}

// ReadRGBAImage reads the whole current directory into raster, a
// rwidth x rheight grid with its origin at the bottom left.
func (f *File) ReadRGBAImage(rwidth, rheight uint32, raster []uint32, stopOnError bool) error {
	return f.ReadRGBAImageOriented(rwidth, rheight, raster, OrientationBotLeft, stopOnError)
}

// ReadRGBAImageOriented is ReadRGBAImage with the raster in the given
// orientation.
func (f *File) ReadRGBAImageOriented(rwidth, rheight uint32, raster []uint32, orientation uint16, stopOnError bool) error {
	img, err := NewRGBAImage(f, stopOnError)
	if err != nil {
		return err
	}
	img.ReqOrientation = orientation
	return img.Get(raster, rwidth, rheight)
}

// ReadRGBAStrip reads the strip starting at row into raster, which must
// hold width x RowsPerStrip pixels. The strip is stored bottom up.
func (f *File) ReadRGBAStrip(row uint32, raster []uint32) error {
	d := f.dir
	if f.IsTiled() {
		return f.fail("ReadRGBAStrip", fmt.Errorf("%w: cannot read strips from a tiled image", ErrBadValue))
	}
	rps := min(d.rowsPerStrip, d.length)
	if rps == 0 || row%rps != 0 {
		return f.fail("ReadRGBAStrip", fmt.Errorf("%w: row %d is not the first row of a strip", ErrBadValue, row))
	}
	img, err := NewRGBAImage(f, true)
	if err != nil {
		return err
	}
	img.SetOffset(0, row)
	rows := min(rps, d.length-min(row, d.length))
	return img.Get(raster, d.width, rows)
}

// ReadRGBATile reads the tile holding pixel (col, row) into raster, which
// must hold TileWidth x TileLength pixels. The tile is stored bottom up
// and parts outside the image are zero.
func (f *File) ReadRGBATile(col, row uint32, raster []uint32) error {
	d := f.dir
	if !f.IsTiled() {
		return f.fail("ReadRGBATile", fmt.Errorf("%w: cannot read tiles from a stripped image", ErrBadValue))
	}
	tw, th, _ := d.tileDims()
	if col%tw != 0 || row%th != 0 {
		return f.fail("ReadRGBATile", fmt.Errorf("%w: (%d, %d) is not the corner of a tile", ErrBadValue, col, row))
	}
	img, err := NewRGBAImage(f, true)
	if err != nil {
		return err
	}
	img.SetOffset(col, row)
	return img.Get(raster, tw, th)
}
