package tiff

import (
	"errors"
	"fmt"

	"github.com/mrjoshuak/go-tiff/compression"
)

// builtinCodecs returns fresh instances of every codec this package
// knows. Schemes without an implementation are registered unconfigured.
func builtinCodecs() []Codec {
	cs := []Codec{
		&rawCodec{},
		&packBitsCodec{},
		&lzwCodec{},
		&deflateCodec{scheme: CompressionAdobeDeflate},
		&deflateCodec{scheme: CompressionDeflate},
		&zstdCodec{},
		&faxCodec{scheme: CompressionCCITTRLE, mode: compression.FaxRLE},
		&faxCodec{scheme: CompressionCCITTFax3, mode: compression.FaxGroup3},
		&faxCodec{scheme: CompressionCCITTFax4, mode: compression.FaxGroup4},
		&jpegCodec{},
		&j2kCodec{},
	}
	for _, s := range []uint16{
		CompressionOJPEG, CompressionNeXT, CompressionCCITTRLEW,
		CompressionThunderScan, CompressionPixarLog, CompressionJBIG,
		CompressionSGILog, CompressionSGILog24, CompressionLERC,
		CompressionLZMA, CompressionWebP,
	} {
		cs = append(cs, notConfigured(s))
	}
	return cs
}

var errEncodeUnsupported = fmt.Errorf("%w: encoding", ErrUnsupported)

// stubCodec stands in for a scheme this build cannot run.
type stubCodec struct{ scheme uint16 }

func notConfigured(scheme uint16) Codec { return stubCodec{scheme} }

func (c stubCodec) Scheme() uint16             { return c.scheme }
func (c stubCodec) Name() string               { return CompressionName(c.scheme) }
func (c stubCodec) Configured() bool           { return false }
func (c stubCodec) Cleanup()                   {}
func (c stubCodec) Configure(*Directory) error { return c.err() }

func (c stubCodec) err() error {
	return fmt.Errorf("%w: %s compression is not implemented", ErrUnsupported, c.Name())
}

func (c stubCodec) Decode([]byte, []byte, *Segment) (int, error) { return 0, c.err() }
func (c stubCodec) Encode([]byte, *Segment) ([]byte, error)      { return nil, c.err() }

// rawCodec implements Compression=1.
type rawCodec struct{}

func (rawCodec) Scheme() uint16             { return CompressionNone }
func (rawCodec) Name() string               { return "None" }
func (rawCodec) Configured() bool           { return true }
func (rawCodec) Configure(*Directory) error { return nil }
func (rawCodec) Cleanup()                   {}

func (rawCodec) Decode(dst, src []byte, _ *Segment) (int, error) {
	return copy(dst, src), nil
}

func (rawCodec) Encode(src []byte, _ *Segment) ([]byte, error) {
	return append([]byte(nil), src...), nil
}

type packBitsCodec struct{}

func (packBitsCodec) Scheme() uint16             { return CompressionPackBits }
func (packBitsCodec) Name() string               { return "PackBits" }
func (packBitsCodec) Configured() bool           { return true }
func (packBitsCodec) Configure(*Directory) error { return nil }
func (packBitsCodec) Cleanup()                   {}

func (packBitsCodec) Decode(dst, src []byte, _ *Segment) (int, error) {
	n, err := compression.PackBitsDecompressTo(dst, src)
	if errors.Is(err, compression.ErrPackBitsOverflow) {
		// Extra data past the end of the strip is harmless.
		return n, nil
	}
	return n, err
}

func (packBitsCodec) Encode(src []byte, seg *Segment) ([]byte, error) {
	return compression.PackBitsCompress(src, seg.RowBytes), nil
}

type lzwCodec struct{}

func (lzwCodec) Scheme() uint16             { return CompressionLZW }
func (lzwCodec) Name() string               { return "LZW" }
func (lzwCodec) Configured() bool           { return true }
func (lzwCodec) Configure(*Directory) error { return nil }
func (lzwCodec) Cleanup()                   {}
func (lzwCodec) UsesPredictor() bool        { return true }

func (lzwCodec) Decode(dst, src []byte, _ *Segment) (int, error) {
	n, err := compression.LZWDecompressTo(dst, src)
	if errors.Is(err, compression.ErrLZWShort) {
		// Reported by the engine as a short strip.
		return n, nil
	}
	return n, err
}

func (lzwCodec) Encode(src []byte, _ *Segment) ([]byte, error) {
	return compression.LZWCompress(src), nil
}

// deflateCodec implements both Deflate scheme numbers. ZipQuality selects
// the zlib level.
type deflateCodec struct {
	scheme uint16
	level  compression.Level
}

func (c *deflateCodec) Scheme() uint16      { return c.scheme }
func (c *deflateCodec) Name() string        { return CompressionName(c.scheme) }
func (c *deflateCodec) Configured() bool    { return true }
func (c *deflateCodec) UsesPredictor() bool { return true }
func (c *deflateCodec) Cleanup()            {}
func (c *deflateCodec) Fields() []FieldInfo { return zipFields }

func (c *deflateCodec) Configure(*Directory) error {
	c.level = compression.LevelDefault
	return nil
}

func (c *deflateCodec) SetField(tag Tag, v Value) error {
	if tag != TagZipQuality {
		return ErrUnknownTag
	}
	q, err := v.Int()
	if err != nil {
		return err
	}
	if q < -1 || q > 9 {
		return fmt.Errorf("%w: ZipQuality %d not in [-1,9]", ErrBadValue, q)
	}
	c.level = compression.Level(q)
	return nil
}

func (c *deflateCodec) GetField(tag Tag) (Value, bool) {
	if tag != TagZipQuality {
		return Value{}, false
	}
	return Int(int64(c.level)), true
}

func (c *deflateCodec) Decode(dst, src []byte, _ *Segment) (int, error) {
	n, err := compression.DeflateDecompressTo(dst, src)
	if errors.Is(err, compression.ErrDeflateShort) {
		return n, nil
	}
	return n, err
}

func (c *deflateCodec) Encode(src []byte, _ *Segment) ([]byte, error) {
	return compression.DeflateCompress(src, c.level)
}

type zstdCodec struct {
	level int
}

func (c *zstdCodec) Scheme() uint16      { return CompressionZSTD }
func (c *zstdCodec) Name() string        { return "ZSTD" }
func (c *zstdCodec) Configured() bool    { return true }
func (c *zstdCodec) UsesPredictor() bool { return true }
func (c *zstdCodec) Cleanup()            {}
func (c *zstdCodec) Fields() []FieldInfo { return zstdFields }

func (c *zstdCodec) Configure(*Directory) error {
	c.level = compression.DefaultZSTDLevel
	return nil
}

func (c *zstdCodec) SetField(tag Tag, v Value) error {
	if tag != TagZSTDLevel {
		return ErrUnknownTag
	}
	l, err := v.Int()
	if err != nil {
		return err
	}
	if l < 1 || l > 22 {
		return fmt.Errorf("%w: ZSTDLevel %d not in [1,22]", ErrBadValue, l)
	}
	c.level = int(l)
	return nil
}

func (c *zstdCodec) GetField(tag Tag) (Value, bool) {
	if tag != TagZSTDLevel {
		return Value{}, false
	}
	return Int(int64(c.level)), true
}

func (c *zstdCodec) Decode(dst, src []byte, _ *Segment) (int, error) {
	return compression.ZSTDDecompressTo(dst, src)
}

func (c *zstdCodec) Encode(src []byte, _ *Segment) ([]byte, error) {
	return compression.ZSTDCompress(src, c.level)
}

// faxCodec decodes CCITT bilevel data. Encoding is not supported.
type faxCodec struct {
	scheme uint16
	mode   compression.FaxMode
	fax    uint32
}

func (c *faxCodec) Scheme() uint16         { return c.scheme }
func (c *faxCodec) Name() string           { return CompressionName(c.scheme) }
func (c *faxCodec) Configured() bool       { return true }
func (c *faxCodec) HandlesFillOrder() bool { return true }
func (c *faxCodec) Fields() []FieldInfo    { return faxFields }
func (c *faxCodec) Cleanup()               {}

func (c *faxCodec) Configure(*Directory) error {
	c.fax = FaxModeClassic
	if c.scheme == CompressionCCITTRLE {
		c.fax = FaxModeNoRTC | FaxModeNoEOL | FaxModeByteAlign
	}
	return nil
}

func (c *faxCodec) SetField(tag Tag, v Value) error {
	if tag != TagFaxMode {
		return ErrUnknownTag
	}
	m, err := v.Uint32()
	if err != nil {
		return err
	}
	c.fax = m
	return nil
}

func (c *faxCodec) GetField(tag Tag) (Value, bool) {
	if tag != TagFaxMode {
		return Value{}, false
	}
	return Uint(uint64(c.fax)), true
}

func (c *faxCodec) Decode(dst, src []byte, seg *Segment) (int, error) {
	d := seg.Dir
	if d.bitsPerSample != 1 || seg.Samples != 1 {
		return 0, fmt.Errorf("%w: CCITT data must be bilevel", ErrUnsupported)
	}
	if c.scheme == CompressionCCITTFax3 {
		if v, ok := d.customValue(TagGroup3Options); ok {
			if opts, _ := v.Uint(); opts&Group3Opt2DEncoding != 0 {
				return 0, fmt.Errorf("%w: two-dimensional Group 3 coding", ErrUnsupported)
			}
		}
	}
	return compression.FaxDecompressTo(dst, src, compression.FaxParams{
		Mode:        c.mode,
		Width:       seg.Width,
		Rows:        seg.Rows,
		LSBFirst:    d.fillOrder == FillOrderLSB2MSB,
		WhiteIsZero: d.photometric == PhotometricMinIsWhite,
	})
}

func (c *faxCodec) Encode([]byte, *Segment) ([]byte, error) {
	return nil, errEncodeUnsupported
}

// jpegCodec implements Compression=7 with abbreviated streams and
// JPEGTables. With JPEGColorMode set to RGB, YCbCr data is returned
// upsampled to RGB.
type jpegCodec struct {
	dir       *Directory
	quality   int
	colorMode int
}

func (c *jpegCodec) Scheme() uint16      { return CompressionJPEG }
func (c *jpegCodec) Name() string        { return "JPEG" }
func (c *jpegCodec) Configured() bool    { return true }
func (c *jpegCodec) Fields() []FieldInfo { return jpegFields }
func (c *jpegCodec) Cleanup()            { c.dir = nil }

func (c *jpegCodec) Configure(d *Directory) error {
	c.dir = d
	c.quality = 75
	c.colorMode = JPEGColorModeRaw
	return nil
}

func (c *jpegCodec) Upsampled() bool {
	return c.dir != nil && c.colorMode == JPEGColorModeRGB &&
		c.dir.photometric == PhotometricYCbCr && c.dir.planarConfig == PlanarContig
}

func (c *jpegCodec) SetField(tag Tag, v Value) error {
	x, err := v.Uint32()
	if err != nil {
		return err
	}
	switch tag {
	case TagJPEGQuality:
		if x < 1 || x > 100 {
			return fmt.Errorf("%w: JPEGQuality %d not in [1,100]", ErrBadValue, x)
		}
		c.quality = int(x)
	case TagJPEGColorMode:
		if x != JPEGColorModeRaw && x != JPEGColorModeRGB {
			return fmt.Errorf("%w: JPEGColorMode %d", ErrBadValue, x)
		}
		c.colorMode = int(x)
	default:
		return ErrUnknownTag
	}
	return nil
}

func (c *jpegCodec) GetField(tag Tag) (Value, bool) {
	switch tag {
	case TagJPEGQuality:
		return Uint(uint64(c.quality)), true
	case TagJPEGColorMode:
		return Uint(uint64(c.colorMode)), true
	}
	return Value{}, false
}

func (c *jpegCodec) params(seg *Segment) (compression.JPEGParams, error) {
	d := seg.Dir
	if seg.Bits != 8 {
		return compression.JPEGParams{}, fmt.Errorf("%w: %d-bit JPEG", ErrUnsupported, seg.Bits)
	}
	p := compression.JPEGParams{Width: seg.Width, Height: seg.Rows, Samples: seg.Samples, Quality: c.quality}
	if d.photometric == PhotometricYCbCr && seg.Samples == 3 && !c.Upsampled() {
		p.Raw = true
		p.SubH, p.SubV = int(d.ycbcrSubsampling[0]), int(d.ycbcrSubsampling[1])
	}
	return p, nil
}

func (c *jpegCodec) Decode(dst, src []byte, seg *Segment) (int, error) {
	p, err := c.params(seg)
	if err != nil {
		return 0, err
	}
	var tables []byte
	if v, ok := seg.Dir.customValue(TagJPEGTables); ok {
		tables, _ = v.Bytes()
	}
	return compression.JPEGDecompressTo(dst, src, tables, p)
}

func (c *jpegCodec) Encode(src []byte, seg *Segment) ([]byte, error) {
	p, err := c.params(seg)
	if err != nil {
		return nil, err
	}
	if p.Raw {
		return nil, fmt.Errorf("%w: raw YCbCr JPEG", errEncodeUnsupported)
	}
	return compression.JPEGCompress(src, p)
}

// j2kCodec implements Compression=34712 for 8 and 16-bit gray, RGB and
// RGBA data. Encoding is lossless.
type j2kCodec struct{}

func (j2kCodec) Scheme() uint16             { return CompressionJPEG2000 }
func (j2kCodec) Name() string               { return "JPEG2000" }
func (j2kCodec) Configured() bool           { return true }
func (j2kCodec) Configure(*Directory) error { return nil }
func (j2kCodec) Cleanup()                   {}

func (j2kCodec) params(seg *Segment) compression.J2KParams {
	return compression.J2KParams{
		Width:    seg.Width,
		Height:   seg.Rows,
		Samples:  seg.Samples,
		Bits:     seg.Bits,
		Order:    seg.Order,
		Lossless: true,
	}
}

func (c j2kCodec) Decode(dst, src []byte, seg *Segment) (int, error) {
	return compression.J2KDecompressTo(dst, src, c.params(seg))
}

func (c j2kCodec) Encode(src []byte, seg *Segment) ([]byte, error) {
	return compression.J2KCompress(src, c.params(seg))
}
