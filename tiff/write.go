package tiff

import (
	"fmt"
	"math"

	"github.com/mrjoshuak/go-tiff/internal/predictor"
)

// writeCheck prepares the current directory for its first data write.
// Afterwards fields that are not OkToChange are locked.
func (f *File) writeCheck(tiles bool) error {
	if f.w == nil || f.mode == ModeRead {
		return fmt.Errorf("%w: file not open for writing", ErrWrongMode)
	}
	d := f.dir
	switch {
	case tiles && !f.IsTiled():
		return fmt.Errorf("%w: cannot write tiles to a stripped image", ErrBadValue)
	case !tiles && f.IsTiled():
		return fmt.Errorf("%w: cannot write scanlines or strips to a tiled image", ErrBadValue)
	}
	if !d.isSet(FieldImageDimensions) {
		return fmt.Errorf("%w: must set ImageWidth and ImageLength before writing data", ErrMissingRequired)
	}
	if !d.isSet(FieldStripOffsets) {
		if !tiles && !d.isSet(FieldRowsPerStrip) {
			d.rowsPerStrip = f.DefaultStripSize(0)
			d.setBit(FieldRowsPerStrip)
		}
		d.setupStrips()
		if d.nstrips == 0 {
			return fmt.Errorf("%w: image has no %s", ErrBadValue, f.segmentNoun())
		}
		d.setBit(FieldStripOffsets)
		d.setBit(FieldStripByteCounts)
	}
	if err := f.setupCoder(); err != nil {
		return err
	}
	f.beenWriting = true
	return nil
}

// appendSegment stores data as strip or tile index. Data that fits where
// the segment was stored before overwrites it; anything else goes at the
// end of the file.
func (f *File) appendSegment(index uint32, data []byte) error {
	d := f.dir
	off, old := d.stripOffsets[index], d.stripByteCounts[index]
	if off == 0 || old < uint64(len(data)) {
		off = uint64(f.eof)
	}
	if off+uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: %s %d ends past 4 GiB", ErrUnsupported, segmentKind(f.IsTiled()), index)
	}
	if err := f.writeAt(int64(off), data); err != nil {
		return fmt.Errorf("%s %d: %w", segmentKind(f.IsTiled()), index, err)
	}
	d.stripOffsets[index] = off
	d.stripByteCounts[index] = uint64(len(data))
	d.stripsSorted = d.stripsSorted && (index == 0 || d.stripOffsets[index-1] <= off)
	f.dirty = true
	return nil
}

// encode turns size bytes of host order samples from src into the stored
// form. src is not modified.
func (f *File) encode(src []byte, seg *Segment) ([]byte, error) {
	d := f.dir
	work := getScratch(len(src))
	defer putScratch(work)
	buf := *work
	copy(buf, src)

	if f.usesPredictor() {
		stride, bits := seg.Samples, seg.Bits
		var err error
		switch d.predictor {
		case predictor.Horizontal:
			err = predictorRows(buf, seg.RowBytes, func(row []byte) error {
				return predictor.EncodeRow(row, stride, bits)
			})
		case predictor.FloatingPoint:
			tmp := getScratch(seg.RowBytes)
			err = predictorRows(buf, seg.RowBytes, func(row []byte) error {
				return predictor.EncodeFloatRow(row, stride, bits, *tmp)
			})
			putScratch(tmp)
		}
		if err != nil {
			return nil, &CodecError{Scheme: f.codec.Scheme(), Op: "predictor", Segment: seg.Index, Err: err}
		}
	}
	if swab := f.swabFunc(); swab != nil {
		swab(buf)
	}
	out, err := f.codec.Encode(buf, seg)
	if err != nil {
		return nil, &CodecError{Scheme: f.codec.Scheme(), Op: "encode", Segment: seg.Index, Err: err}
	}
	if d.fillOrder == FillOrderLSB2MSB && !f.codecHandlesFillOrder() {
		reverseBits(out)
	}
	return out, nil
}

// WriteEncodedStrip encodes data as strip and returns the number of
// decoded bytes consumed. data must hold the strip's decoded size; extra
// bytes are ignored.
func (f *File) WriteEncodedStrip(strip uint32, data []byte) (int, error) {
	n, err := f.writeEncodedStrip(strip, data)
	if err != nil {
		return 0, f.fail("WriteEncodedStrip", err)
	}
	return n, nil
}

func (f *File) writeEncodedStrip(strip uint32, data []byte) (int, error) {
	if err := f.writeCheck(false); err != nil {
		return 0, err
	}
	if err := f.checkStrip(strip); err != nil {
		return 0, err
	}
	rows := f.stripRows(strip)
	size := f.VStripSize(rows)
	if len(data) < size {
		return 0, fmt.Errorf("%w: %d bytes for strip %d, need %d", ErrBadValue, len(data), strip, size)
	}
	out, err := f.encode(data[:size], f.segment(strip, f.dir.width, rows, size))
	if err != nil {
		return 0, err
	}
	if err := f.appendSegment(strip, out); err != nil {
		return 0, err
	}
	return size, nil
}

// WriteEncodedTile encodes data as tile. data must hold TileSize bytes.
func (f *File) WriteEncodedTile(tile uint32, data []byte) (int, error) {
	n, err := f.writeEncodedTile(tile, data)
	if err != nil {
		return 0, f.fail("WriteEncodedTile", err)
	}
	return n, nil
}

func (f *File) writeEncodedTile(tile uint32, data []byte) (int, error) {
	if err := f.writeCheck(true); err != nil {
		return 0, err
	}
	if err := f.checkStrip(tile); err != nil {
		return 0, err
	}
	size := f.TileSize()
	if len(data) < size {
		return 0, fmt.Errorf("%w: %d bytes for tile %d, need %d", ErrBadValue, len(data), tile, size)
	}
	dx, dy, dz := f.dir.tileDims()
	out, err := f.encode(data[:size], f.segment(tile, dx, dy*dz, size))
	if err != nil {
		return 0, err
	}
	if err := f.appendSegment(tile, out); err != nil {
		return 0, err
	}
	return size, nil
}

// WriteTile encodes the tile holding pixel (x, y, z) of sample plane s.
func (f *File) WriteTile(buf []byte, x, y, z uint32, s uint16) (int, error) {
	if err := f.CheckTile(x, y, z, s); err != nil {
		return 0, f.fail("WriteTile", err)
	}
	return f.WriteEncodedTile(f.ComputeTile(x, y, z, s), buf)
}

// WriteRawStrip stores data as strip without encoding it.
func (f *File) WriteRawStrip(strip uint32, data []byte) (int, error) {
	return f.writeRaw("WriteRawStrip", false, strip, data)
}

// WriteRawTile stores data as tile without encoding it.
func (f *File) WriteRawTile(tile uint32, data []byte) (int, error) {
	return f.writeRaw("WriteRawTile", true, tile, data)
}

func (f *File) writeRaw(op string, tiles bool, index uint32, data []byte) (int, error) {
	if err := f.writeCheck(tiles); err != nil {
		return 0, f.fail(op, err)
	}
	if err := f.checkStrip(index); err != nil {
		return 0, f.fail(op, err)
	}
	if err := f.appendSegment(index, data); err != nil {
		return 0, f.fail(op, err)
	}
	return len(data), nil
}

// WriteScanline stores row of sample plane sample. Rows are collected
// per strip and the strip is encoded once all its rows are present, when
// a row of another strip arrives, or on FlushData.
func (f *File) WriteScanline(buf []byte, row uint32, sample uint16) error {
	if err := f.writeScanline(buf, row, sample); err != nil {
		return f.fail("WriteScanline", err)
	}
	return nil
}

func (f *File) writeScanline(buf []byte, row uint32, sample uint16) error {
	if err := f.writeCheck(false); err != nil {
		return err
	}
	d := f.dir
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
	if f.scan.wstrip != int64(strip) {
		if err := f.flushScanlines(); err != nil {
			return err
		}
		size := f.VStripSize(f.stripRows(strip))
		if cap(f.scan.wbuf) < size {
			f.scan.wbuf = make([]byte, size)
		}
		f.scan.wbuf = f.scan.wbuf[:size]
		clear(f.scan.wbuf)
		f.scan.wstrip = int64(strip)
		f.scan.wrows = 0
	}
	first := row
	if rps := d.rowsPerStrip; rps != 0 && rps != math.MaxUint32 {
		first = row % rps
	}
	off := int(first) * sl
	if off+sl > len(f.scan.wbuf) {
		return fmt.Errorf("%w: row %d beyond strip %d", ErrBadValue, row, strip)
	}
	copy(f.scan.wbuf[off:], buf[:sl])
	f.scan.wrows++
	if f.scan.wrows >= f.stripRows(strip) {
		return f.flushScanlines()
	}
	return nil
}

// flushScanlines encodes the strip being collected by WriteScanline.
func (f *File) flushScanlines() error {
	if !f.scan.pending() {
		return nil
	}
	strip := uint32(f.scan.wstrip)
	f.scan.wstrip, f.scan.wrows = -1, 0
	_, err := f.writeEncodedStrip(strip, f.scan.wbuf)
	return err
}

// FlushData writes any scanlines still being collected.
func (f *File) FlushData() error {
	if err := f.flushScanlines(); err != nil {
		return f.fail("FlushData", err)
	}
	return nil
}

// Flush writes pending data and, if the directory changed, the
// directory.
func (f *File) Flush() error {
	if f.mode == ModeRead {
		return nil
	}
	if err := f.FlushData(); err != nil {
		return err
	}
	if f.dirty {
		return f.CheckpointDirectory()
	}
	return nil
}
