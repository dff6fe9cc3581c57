package tiff

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/image/draw"
)

func init() {
	image.RegisterFormat("tiff", "II*\x00", Decode, DecodeConfig)
	image.RegisterFormat("tiff", "MM\x00*", Decode, DecodeConfig)
}

// DefaultImageCacheSize is the number of converted strips or tiles an
// Image keeps.
const DefaultImageCacheSize = 64

// Image presents the current directory of a File as an image.Image in
// its display orientation. Strips or tiles are converted on first access
// and kept in an LRU cache. Decoding failures read as transparent black
// and are available from Err.
type Image struct {
	mu    sync.Mutex
	f     *File
	rgba  *RGBAImage
	cache *lru.Cache // segment number -> []uint32

	width, height int
	segW, segH    int
	across        int
	transposed    bool
	flipX, flipY  bool
	err           error
}

// NewImage wraps the current directory of f. The File must stay open
// while the Image is in use, and must not be used by anything else.
func NewImage(f *File) (*Image, error) {
	rgba, err := NewRGBAImage(f, true)
	if err != nil {
		return nil, err
	}
	rgba.ReqOrientation = rgba.orientation
	cache, err := lru.New(DefaultImageCacheSize)
	if err != nil {
		return nil, err
	}
	d := f.dir
	m := &Image{
		f:      f,
		rgba:   rgba,
		cache:  cache,
		width:  int(d.width),
		height: int(d.length),
	}
	if f.IsTiled() {
		tw, th, _ := d.tileDims()
		m.segW, m.segH = int(tw), int(th)
	} else {
		m.segW, m.segH = int(d.width), int(min(d.rowsPerStrip, d.length))
	}
	if m.segW == 0 || m.segH == 0 {
		return nil, fmt.Errorf("%w: zero %s size", ErrBadValue, segmentKind(f.IsTiled()))
	}
	m.across = (m.width + m.segW - 1) / m.segW
	switch d.orientation {
	case OrientationTopRight:
		m.flipX = true
	case OrientationBotRight:
		m.flipX, m.flipY = true, true
	case OrientationBotLeft:
		m.flipY = true
	case OrientationLeftTop:
		m.transposed = true
	case OrientationRightTop:
		m.transposed, m.flipY = true, true
	case OrientationRightBot:
		m.transposed, m.flipX, m.flipY = true, true, true
	case OrientationLeftBot:
		m.transposed, m.flipX = true, true
	}
	return m, nil
}

// ColorModel returns color.RGBAModel: pixels are alpha premultiplied.
func (m *Image) ColorModel() color.Model { return color.RGBAModel }

// Bounds returns the display bounds. Orientations 5 to 8 swap width and
// height.
func (m *Image) Bounds() image.Rectangle {
	if m.transposed {
		return image.Rect(0, 0, m.height, m.width)
	}
	return image.Rect(0, 0, m.width, m.height)
}

func (m *Image) At(x, y int) color.Color { return m.RGBAAt(x, y) }

// RGBAAt returns the pixel at display position (x, y).
func (m *Image) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(m.Bounds())) {
		return color.RGBA{}
	}
	if m.transposed {
		x, y = y, x
	}
	if m.flipX {
		x = m.width - 1 - x
	}
	if m.flipY {
		y = m.height - 1 - y
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sx, sy := x/m.segW, y/m.segH
	seg, w := m.segment(sx, sy)
	if seg == nil {
		return color.RGBA{}
	}
	r, g, b, a := Unpack(seg[(y-sy*m.segH)*w+x-sx*m.segW])
	return color.RGBA{R: r, G: g, B: b, A: a}
}

// segment returns the converted pixels of the strip or tile at grid
// position (sx, sy) and their row length.
func (m *Image) segment(sx, sy int) ([]uint32, int) {
	key := sy*m.across + sx
	x0, y0 := sx*m.segW, sy*m.segH
	w := min(m.segW, m.width-x0)
	h := min(m.segH, m.height-y0)
	if v, ok := m.cache.Get(key); ok {
		return v.([]uint32), w
	}
	pix := make([]uint32, w*h)
	m.rgba.SetOffset(uint32(x0), uint32(y0))
	if err := m.rgba.get(pix, uint32(w), uint32(h)); err != nil {
		if m.err == nil {
			m.err = err
		}
		return nil, w
	}
	m.cache.Add(key, pix)
	return pix, w
}

// Err returns the first error met while converting image data.
func (m *Image) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Decode reads the first image of a TIFF stream as an *image.RGBA in
// display orientation.
func Decode(r io.Reader) (image.Image, error) {
	f, err := openReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.DecodeImage()
}

// DecodeConfig returns the dimensions of the first image of a TIFF
// stream.
func DecodeConfig(r io.Reader) (image.Config, error) {
	f, err := openReader(r)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	w, h := int(f.dir.width), int(f.dir.length)
	if f.dir.orientation >= OrientationLeftTop {
		w, h = h, w
	}
	return image.Config{ColorModel: color.RGBAModel, Width: w, Height: h}, nil
}

func openReader(r io.Reader) (*File, error) {
	ra, ok := r.(interface {
		io.ReaderAt
		Size() int64
	})
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		ra = bytes.NewReader(data)
	}
	opts := DefaultOptions()
	opts.Handler = DiscardHandler
	return Open(ra, ra.Size(), &opts)
}

// DecodeImage converts the current directory to an *image.RGBA in display
// orientation.
func (f *File) DecodeImage() (image.Image, error) {
	m, err := NewImage(f)
	if err != nil {
		return nil, err
	}
	b := m.Bounds()
	out := image.NewRGBA(b)
	raster := make([]uint32, m.width*m.height)
	if err := m.rgba.Get(raster, uint32(m.width), uint32(m.height)); err != nil {
		return nil, err
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sx, sy := x, y
			if m.transposed {
				sx, sy = y, x
			}
			if m.flipX {
				sx = m.width - 1 - sx
			}
			if m.flipY {
				sy = m.height - 1 - sy
			}
			r, g, bl, a := Unpack(raster[sy*m.width+sx])
			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = r, g, bl, a
		}
	}
	return out, nil
}

// EncodeOptions control Encode.
type EncodeOptions struct {
	// Compression is the scheme used for strips; 0 means none.
	Compression uint16
	// Predictor enables horizontal differencing for schemes that
	// support it.
	Predictor bool
	// RowsPerStrip overrides the default strip height.
	RowsPerStrip uint32
	// Options configures the output handle; nil means DefaultOptions.
	Options *Options
}

// Encode writes m to w as a single-image TIFF. Gray, Gray16, RGBA, NRGBA
// and Paletted images are stored natively; anything else is converted to
// NRGBA first.
func Encode(w io.Writer, m image.Image, opt *EncodeOptions) error {
	if opt == nil {
		opt = &EncodeOptions{}
	}
	ws, ok := w.(io.WriteSeeker)
	var buf *writeBuffer
	if !ok {
		buf = &writeBuffer{}
		ws = buf
	}
	f, err := Create(ws, opt.Options)
	if err != nil {
		return err
	}
	if err := encodeImage(f, m, opt); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if buf != nil {
		if _, err := w.Write(buf.buf); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	return nil
}

func encodeImage(f *File, m image.Image, opt *EncodeOptions) error {
	b := m.Bounds()
	if b.Empty() {
		return fmt.Errorf("%w: empty image", ErrBadValue)
	}
	width, height := b.Dx(), b.Dy()

	var (
		photometric uint16
		bps         uint16 = 8
		spp         uint16 = 1
		extra       []uint16
		rowBytes    int
		rowAt       func(y int) []byte
		colormap    []uint16
	)
	switch img := m.(type) {
	case *image.Gray:
		photometric = PhotometricMinIsBlack
		rowBytes = width
		rowAt = func(y int) []byte { return img.Pix[img.PixOffset(b.Min.X, y):][:rowBytes] }
	case *image.Gray16:
		photometric, bps = PhotometricMinIsBlack, 16
		rowBytes = 2 * width
		row := make([]byte, rowBytes)
		rowAt = func(y int) []byte {
			src := img.Pix[img.PixOffset(b.Min.X, y):]
			for x := 0; x < width; x++ {
				native.PutUint16(row[2*x:], uint16(src[2*x])<<8|uint16(src[2*x+1]))
			}
			return row
		}
	case *image.Paletted:
		photometric = PhotometricPalette
		rowBytes = width
		rowAt = func(y int) []byte { return img.Pix[img.PixOffset(b.Min.X, y):][:rowBytes] }
		colormap = make([]uint16, 3*256)
		for i, c := range img.Palette {
			if i >= 256 {
				break
			}
			r, g, bl, _ := c.RGBA()
			colormap[i], colormap[256+i], colormap[512+i] = uint16(r), uint16(g), uint16(bl)
		}
	case *image.RGBA:
		photometric, spp = PhotometricRGB, 4
		extra = []uint16{ExtraSampleAssocAlpha}
		rowBytes = 4 * width
		rowAt = func(y int) []byte { return img.Pix[img.PixOffset(b.Min.X, y):][:rowBytes] }
	default:
		nrgba, ok := m.(*image.NRGBA)
		if !ok {
			nrgba = image.NewNRGBA(b)
			draw.Draw(nrgba, b, m, b.Min, draw.Src)
		}
		photometric, spp = PhotometricRGB, 4
		extra = []uint16{ExtraSampleUnassAlpha}
		rowBytes = 4 * width
		rowAt = func(y int) []byte { return nrgba.Pix[nrgba.PixOffset(b.Min.X, y):][:rowBytes] }
	}

	compression := opt.Compression
	if compression == 0 {
		compression = CompressionNone
	}
	type tagValue struct {
		tag Tag
		v   Value
	}
	set := []tagValue{
		{TagImageWidth, Uint(uint64(width))},
		{TagImageLength, Uint(uint64(height))},
		{TagBitsPerSample, Uint(uint64(bps))},
		{TagSamplesPerPixel, Uint(uint64(spp))},
		{TagPhotometric, Uint(uint64(photometric))},
		{TagPlanarConfig, Uint(PlanarContig)},
		{TagCompression, Uint(uint64(compression))},
	}
	if extra != nil {
		set = append(set, tagValue{TagExtraSamples, Uint16s(extra...)})
	}
	if colormap != nil {
		set = append(set, tagValue{TagColorMap, Uint16s(colormap...)})
	}
	for _, s := range set {
		if err := f.SetField(s.tag, s.v); err != nil {
			return err
		}
	}
	if opt.Predictor && f.usesPredictor() {
		if err := f.SetField(TagPredictor, Uint(2)); err != nil {
			return err
		}
	}
	rps := f.DefaultStripSize(opt.RowsPerStrip)
	if err := f.SetField(TagRowsPerStrip, Uint(uint64(rps))); err != nil {
		return err
	}

	strip := make([]byte, int(rps)*rowBytes)
	for y0, s := 0, uint32(0); y0 < height; y0, s = y0+int(rps), s+1 {
		rows := min(int(rps), height-y0)
		for r := 0; r < rows; r++ {
			copy(strip[r*rowBytes:], rowAt(b.Min.Y+y0+r))
		}
		if _, err := f.WriteEncodedStrip(s, strip[:rows*rowBytes]); err != nil {
			return err
		}
	}
	return f.WriteDirectory()
}

// writeBuffer is an in-memory io.WriteSeeker.
type writeBuffer struct {
	buf []byte
	pos int64
}

func (b *writeBuffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.buf)) {
		b.buf = append(b.buf, make([]byte, end-int64(len(b.buf)))...)
	}
	copy(b.buf[b.pos:], p)
	b.pos = end
	return len(p), nil
}

func (b *writeBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = b.pos + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("tiff: invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("tiff: negative position")
	}
	b.pos = pos
	return pos, nil
}
