package tiff

import (
	"errors"
	"fmt"
	"math"

	"github.com/mrjoshuak/go-tiff/internal/predictor"
)

// errShortData reports a segment that decoded to fewer bytes than its
// geometry needs.
var errShortData = fmt.Errorf("%w: not enough image data", ErrFormat)

// scanState holds the scanline read cache and the scanline write
// accumulator.
type scanState struct {
	// read side
	rstrip int64 // decoded strip in rbuf, -1 = none
	rbuf   []byte

	// write side
	wstrip int64 // strip being filled, -1 = none
	wbuf   []byte
	wrows  uint32 // rows stored in wbuf
}

func (s *scanState) pending() bool { return s.wstrip >= 0 && s.wrows > 0 }

// invalidate drops the decoded strip.
func (s *scanState) invalidate() { s.rstrip = -1 }

func (s *scanState) reset() {
	s.rstrip, s.wstrip = -1, -1
	s.rbuf, s.wbuf = nil, nil
	s.wrows = 0
}

// segment describes strip or tile index for the bound codec.
func (f *File) segment(index uint32, width, rows uint32, size int) *Segment {
	d := f.dir
	seg := &Segment{
		Index:   index,
		Width:   int(width),
		Rows:    int(rows),
		Bytes:   size,
		Samples: 1,
		Bits:    int(d.bitsPerSample),
		Order:   f.order,
		Dir:     d,
	}
	if d.planarConfig == PlanarContig {
		seg.Samples = int(d.samplesPerPixel)
	}
	coded := rows
	if d.isContigYCbCr(f.IsUpSampled()) {
		coded = howMany32(rows, uint32(d.ycbcrSubsampling[1]))
	}
	if coded > 0 {
		seg.RowBytes = size / int(coded)
	}
	return seg
}

// setupCoder checks once per directory that the bound codec can process
// the current sample layout.
func (f *File) setupCoder() error {
	if f.coderReady {
		return nil
	}
	d := f.dir
	if f.codec == nil {
		if err := f.bindCodec(d.compression, false); err != nil {
			return err
		}
	}
	if !f.codec.Configured() {
		return fmt.Errorf("%w: compression scheme %d (%s) is not configured",
			ErrUnsupported, d.compression, CompressionName(d.compression))
	}
	if f.usesPredictor() {
		switch d.predictor {
		case predictor.None:
		case predictor.Horizontal:
			switch d.bitsPerSample {
			case 8, 16, 32, 64:
			default:
				return fmt.Errorf("%w: horizontal differencing with %d-bit samples", ErrUnsupported, d.bitsPerSample)
			}
		case predictor.FloatingPoint:
			if d.sampleFormat != SampleFormatIEEEFP {
				return fmt.Errorf("%w: floating point predictor with sample format %d", ErrUnsupported, d.sampleFormat)
			}
			switch d.bitsPerSample {
			case 16, 32, 64:
			default:
				return fmt.Errorf("%w: floating point predictor with %d-bit samples", ErrUnsupported, d.bitsPerSample)
			}
		default:
			return fmt.Errorf("%w: predictor %d", ErrUnsupported, d.predictor)
		}
	}
	f.coderReady = true
	return nil
}

// predictorRows applies fn to each row of buf.
func predictorRows(buf []byte, rowBytes int, fn func(row []byte) error) error {
	if rowBytes <= 0 {
		return nil
	}
	for off := 0; off+rowBytes <= len(buf); off += rowBytes {
		if err := fn(buf[off : off+rowBytes]); err != nil {
			return err
		}
	}
	return nil
}

// decode turns the raw bytes of one segment into host order samples in
// dst. raw may be modified.
func (f *File) decode(dst, raw []byte, seg *Segment) error {
	d := f.dir
	if d.fillOrder == FillOrderLSB2MSB && !f.codecHandlesFillOrder() {
		reverseBits(raw)
	}
	n, err := f.codec.Decode(dst, raw, seg)
	if err != nil {
		return &CodecError{Scheme: f.codec.Scheme(), Op: "decode", Segment: seg.Index, Err: err}
	}
	if n < len(dst) {
		return &CodecError{Scheme: f.codec.Scheme(), Op: "decode", Segment: seg.Index,
			Err: fmt.Errorf("%w: got %d of %d bytes", errShortData, n, len(dst))}
	}
	if swab := f.swabFunc(); swab != nil {
		swab(dst)
	}
	if !f.usesPredictor() {
		return nil
	}
	stride, bits := seg.Samples, seg.Bits
	switch d.predictor {
	case predictor.Horizontal:
		err = predictorRows(dst, seg.RowBytes, func(row []byte) error {
			return predictor.DecodeRow(row, stride, bits)
		})
	case predictor.FloatingPoint:
		tmp := getScratch(seg.RowBytes)
		defer putScratch(tmp)
		err = predictorRows(dst, seg.RowBytes, func(row []byte) error {
			return predictor.DecodeFloatRow(row, stride, bits, *tmp)
		})
	}
	if err != nil {
		return &CodecError{Scheme: f.codec.Scheme(), Op: "predictor", Segment: seg.Index, Err: err}
	}
	return nil
}

func (f *File) readCheck(tiles bool) error {
	if f.r == nil || f.mode != ModeRead {
		return fmt.Errorf("%w: file not open for reading", ErrWrongMode)
	}
	switch {
	case tiles && !f.IsTiled():
		return fmt.Errorf("%w: cannot read tiles from a stripped image", ErrBadValue)
	case !tiles && f.IsTiled():
		return fmt.Errorf("%w: cannot read strips from a tiled image", ErrBadValue)
	}
	if !f.dir.isSet(FieldStripOffsets) {
		return fmt.Errorf("%w: no %s", ErrMissingRequired, f.offsetsName())
	}
	return nil
}

func (f *File) offsetsName() string {
	if f.IsTiled() {
		return "TileOffsets"
	}
	return "StripOffsets"
}

// readRaw loads the stored bytes of strip or tile index into the raw
// buffer. A segment with no stored bytes returns nil.
func (f *File) readRaw(index uint32) ([]byte, error) {
	d := f.dir
	off, n := d.stripOffsets[index], d.stripByteCounts[index]
	if n == 0 {
		return nil, nil
	}
	if n > math.MaxInt32 || off > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %s %d: byte count %d at offset %d",
			ErrBadDirectory, segmentKind(f.IsTiled()), index, n, off)
	}
	buf, err := f.raw.get(int(n))
	if err != nil {
		return nil, err
	}
	if err := f.readAt(buf, int64(off)); err != nil {
		return nil, fmt.Errorf("%s %d: %w", segmentKind(f.IsTiled()), index, err)
	}
	return buf, nil
}

// RawStripSize returns the stored size of strip.
func (f *File) RawStripSize(strip uint32) (uint64, error) {
	if err := f.checkStrip(strip); err != nil {
		return 0, err
	}
	return f.dir.stripByteCounts[strip], nil
}

// ReadRawStrip copies the stored bytes of strip into buf and returns the
// number of bytes copied. A buf shorter than the strip receives its
// prefix.
func (f *File) ReadRawStrip(strip uint32, buf []byte) (int, error) {
	return f.readRawSegment("ReadRawStrip", false, strip, buf)
}

// ReadRawTile is ReadRawStrip for tiles.
func (f *File) ReadRawTile(tile uint32, buf []byte) (int, error) {
	return f.readRawSegment("ReadRawTile", true, tile, buf)
}

func (f *File) readRawSegment(op string, tiles bool, index uint32, buf []byte) (int, error) {
	if err := f.readCheck(tiles); err != nil {
		return 0, f.fail(op, err)
	}
	if err := f.checkStrip(index); err != nil {
		return 0, f.fail(op, err)
	}
	d := f.dir
	off, n := d.stripOffsets[index], d.stripByteCounts[index]
	if n > uint64(len(buf)) {
		n = uint64(len(buf))
	}
	if n == 0 {
		return 0, nil
	}
	if err := f.readAt(buf[:n], int64(off)); err != nil {
		return 0, f.fail(op, fmt.Errorf("%s %d: %w", segmentKind(tiles), index, err))
	}
	return int(n), nil
}

// ReadEncodedStrip decodes strip into buf and returns the decoded size.
// buf must hold at least StripSize bytes; the last strip of an image may
// be shorter. A strip with no stored bytes reads as zeros.
func (f *File) ReadEncodedStrip(strip uint32, buf []byte) (int, error) {
	n, err := f.readEncodedStrip(strip, buf)
	if err != nil {
		return 0, f.fail("ReadEncodedStrip", err)
	}
	return n, nil
}

func (f *File) readEncodedStrip(strip uint32, buf []byte) (int, error) {
	if err := f.readCheck(false); err != nil {
		return 0, err
	}
	if err := f.checkStrip(strip); err != nil {
		return 0, err
	}
	rows := f.stripRows(strip)
	size := f.VStripSize(rows)
	if len(buf) < size {
		return 0, fmt.Errorf("%w: buffer of %d bytes, strip %d needs %d", ErrBadValue, len(buf), strip, size)
	}
	if err := f.setupCoder(); err != nil {
		return 0, err
	}
	return size, f.readSegment(strip, buf[:size], f.segment(strip, f.dir.width, rows, size))
}

func (f *File) readSegment(index uint32, dst []byte, seg *Segment) error {
	raw, err := f.readRaw(index)
	if err != nil {
		return err
	}
	if raw == nil {
		clear(dst)
		return nil
	}
	return f.decode(dst, raw, seg)
}

// ReadEncodedTile decodes tile into buf and returns the decoded size,
// which is always TileSize: edge tiles are stored whole.
func (f *File) ReadEncodedTile(tile uint32, buf []byte) (int, error) {
	n, err := f.readEncodedTile(tile, buf)
	if err != nil {
		return 0, f.fail("ReadEncodedTile", err)
	}
	return n, nil
}

func (f *File) readEncodedTile(tile uint32, buf []byte) (int, error) {
	if err := f.readCheck(true); err != nil {
		return 0, err
	}
	if err := f.checkStrip(tile); err != nil {
		return 0, err
	}
	size := f.TileSize()
	if len(buf) < size {
		return 0, fmt.Errorf("%w: buffer of %d bytes, tile %d needs %d", ErrBadValue, len(buf), tile, size)
	}
	if err := f.setupCoder(); err != nil {
		return 0, err
	}
	dx, dy, dz := f.dir.tileDims()
	return size, f.readSegment(tile, buf[:size], f.segment(tile, dx, dy*dz, size))
}

// ReadTile decodes the tile holding pixel (x, y, z) of sample plane s.
func (f *File) ReadTile(buf []byte, x, y, z uint32, s uint16) (int, error) {
	if err := f.CheckTile(x, y, z, s); err != nil {
		return 0, f.fail("ReadTile", err)
	}
	return f.ReadEncodedTile(f.ComputeTile(x, y, z, s), buf)
}

// ReadScanline copies row of sample plane sample into buf, which must
// hold ScanlineSize bytes. Rows may be read in any order; the strip
// holding the last row read is kept decoded.
func (f *File) ReadScanline(buf []byte, row uint32, sample uint16) error {
	if err := f.readScanline(buf, row, sample); err != nil {
		return f.fail("ReadScanline", err)
	}
	return nil
}

func (f *File) readScanline(buf []byte, row uint32, sample uint16) error {
	d := f.dir
	if err := f.readCheck(false); err != nil {
		return err
	}
	if row >= d.length {
		return fmt.Errorf("%w: row %d out of range, max %d", ErrBadValue, row, d.length-1)
	}
	if d.planarConfig == PlanarSeparate && sample >= d.samplesPerPixel {
		return fmt.Errorf("%w: sample %d out of range, max %d", ErrBadValue, sample, d.samplesPerPixel-1)
	}
	sl := f.ScanlineSize()
	if len(buf) < sl {
		return fmt.Errorf("%w: buffer of %d bytes, scanline needs %d", ErrBadValue, len(buf), sl)
	}
	strip := f.ComputeStrip(row, sample)
	if f.scan.rstrip != int64(strip) {
		size := f.VStripSize(f.stripRows(strip))
		if cap(f.scan.rbuf) < size {
			f.scan.rbuf = make([]byte, size)
		}
		f.scan.rbuf = f.scan.rbuf[:size]
		f.scan.rstrip = -1
		if _, err := f.readEncodedStrip(strip, f.scan.rbuf); err != nil {
			return err
		}
		f.scan.rstrip = int64(strip)
	}
	first := uint32(0)
	if rps := d.rowsPerStrip; rps != 0 && rps != math.MaxUint32 {
		first = row % rps
	} else {
		first = row
	}
	off := int(first) * sl
	if off+sl > len(f.scan.rbuf) {
		return fmt.Errorf("%w: row %d beyond decoded strip %d", errShortData, row, strip)
	}
	copy(buf[:sl], f.scan.rbuf[off:off+sl])
	return nil
}

// IsCodecError reports whether err came from a codec.
func IsCodecError(err error) bool {
	var ce *CodecError
	return errors.As(err, &ce)
}

func segmentKind(tiles bool) string {
	if tiles {
		return "tile"
	}
	return "strip"
}
