package tiff

import (
	"fmt"
	"math"
)

// DefaultStripBytes is the strip size aimed for by DefaultStripSize and
// strip chopping.
const DefaultStripBytes = 8192

func howMany32(x, y uint32) uint32 {
	if y == 0 {
		return 0
	}
	return uint32((uint64(x) + uint64(y) - 1) / uint64(y))
}

func howMany8(bits uint64) uint64 { return (bits + 7) / 8 }

func (d *Directory) isContigYCbCr(upsampled bool) bool {
	return d.planarConfig == PlanarContig && d.photometric == PhotometricYCbCr &&
		d.samplesPerPixel == 3 && !upsampled
}

// numberOfStrips returns the strip count implied by the geometry.
func (d *Directory) numberOfStrips() uint32 {
	var n uint32
	if d.rowsPerStrip == math.MaxUint32 {
		n = 1
	} else {
		n = howMany32(d.length, d.rowsPerStrip)
	}
	if d.planarConfig == PlanarSeparate {
		n *= uint32(d.samplesPerPixel)
	}
	return n
}

// tileDims returns the tile size with unset dimensions taken from the
// image.
func (d *Directory) tileDims() (dx, dy, dz uint32) {
	dx, dy, dz = d.tileWidth, d.tileLength, d.tileDepth
	if dx == math.MaxUint32 {
		dx = d.width
	}
	if dy == math.MaxUint32 {
		dy = d.length
	}
	if dz == math.MaxUint32 {
		dz = d.depth
	}
	return dx, dy, dz
}

func (d *Directory) numberOfTiles() uint32 {
	dx, dy, dz := d.tileDims()
	if dx == 0 || dy == 0 || dz == 0 {
		return 0
	}
	n := uint64(howMany32(d.width, dx)) * uint64(howMany32(d.length, dy)) * uint64(howMany32(d.depth, dz))
	if d.planarConfig == PlanarSeparate {
		n *= uint64(d.samplesPerPixel)
	}
	if n > math.MaxUint32 {
		return 0
	}
	return uint32(n)
}

// setupStrips sizes the offset and byte count arrays for the current
// geometry.
func (d *Directory) setupStrips() {
	if d.isSet(FieldTileDimensions) {
		d.nstrips = d.numberOfTiles()
	} else {
		d.nstrips = d.numberOfStrips()
	}
	d.stripsPerImage = d.nstrips
	if d.planarConfig == PlanarSeparate && d.samplesPerPixel > 0 {
		d.stripsPerImage /= uint32(d.samplesPerPixel)
	}
	d.stripOffsets = make([]uint64, d.nstrips)
	d.stripByteCounts = make([]uint64, d.nstrips)
	d.stripsSorted = true
}

// NumberOfStrips returns the number of strips in the current directory.
func (f *File) NumberOfStrips() uint32 {
	return f.dir.numberOfStrips()
}

// StripsPerImage returns the number of strips in one sample plane.
func (f *File) StripsPerImage() uint32 { return f.dir.stripsPerImage }

// ComputeStrip returns the strip holding row of sample plane sample.
func (f *File) ComputeStrip(row uint32, sample uint16) uint32 {
	d := f.dir
	var strip uint32
	if d.rowsPerStrip != 0 && d.rowsPerStrip != math.MaxUint32 {
		strip = row / d.rowsPerStrip
	}
	if d.planarConfig == PlanarSeparate {
		if sample >= d.samplesPerPixel {
			f.warnf("ComputeStrip", "%d: sample out of range, max %d", sample, d.samplesPerPixel)
			return 0
		}
		strip += uint32(sample) * d.stripsPerImage
	}
	return strip
}

// ScanlineSize returns the decoded size of one row. For subsampled YCbCr
// it is the average share of a row of subsampling blocks.
func (f *File) ScanlineSize() int {
	d := f.dir
	if d.isContigYCbCr(f.IsUpSampled()) {
		hs, vs := uint64(d.ycbcrSubsampling[0]), uint64(d.ycbcrSubsampling[1])
		rowSize := howMany8(uint64(howMany32(d.width, uint32(hs))) * (hs*vs + 2) * uint64(d.bitsPerSample))
		return int(rowSize / vs)
	}
	bits := uint64(d.width) * uint64(d.bitsPerSample)
	if d.planarConfig == PlanarContig {
		bits *= uint64(d.samplesPerPixel)
	}
	return int(howMany8(bits))
}

// RasterScanlineSize returns the size of one row of every sample,
// whatever the planar configuration.
func (f *File) RasterScanlineSize() int {
	d := f.dir
	bits := uint64(d.width) * uint64(d.bitsPerSample)
	if d.planarConfig == PlanarContig {
		return int(howMany8(bits * uint64(d.samplesPerPixel)))
	}
	return int(howMany8(bits)) * int(d.samplesPerPixel)
}

// VStripSize returns the decoded size of a strip of nrows rows.
func (f *File) VStripSize(nrows uint32) int {
	d := f.dir
	if nrows == math.MaxUint32 {
		nrows = d.length
	}
	if d.isContigYCbCr(f.IsUpSampled()) {
		hs, vs := uint32(d.ycbcrSubsampling[0]), uint32(d.ycbcrSubsampling[1])
		blockSamples := uint64(hs*vs + 2)
		rowSize := howMany8(uint64(howMany32(d.width, hs)) * blockSamples * uint64(d.bitsPerSample))
		return int(rowSize * uint64(howMany32(nrows, vs)))
	}
	return int(nrows) * f.ScanlineSize()
}

// StripSize returns the decoded size of a full strip.
func (f *File) StripSize() int {
	rps := f.dir.rowsPerStrip
	if rps > f.dir.length {
		rps = f.dir.length
	}
	return f.VStripSize(rps)
}

// DefaultStripSize returns request if it is positive, otherwise a row
// count giving strips of about DefaultStripBytes.
func (f *File) DefaultStripSize(request uint32) uint32 {
	if request > 0 {
		return request
	}
	sl := f.ScanlineSize()
	if sl < 1 {
		sl = 1
	}
	rows := uint32(DefaultStripBytes / sl)
	if rows == 0 {
		rows = 1
	}
	return rows
}

// stripRows returns the number of rows in strip.
func (f *File) stripRows(strip uint32) uint32 {
	d := f.dir
	rps := d.rowsPerStrip
	if rps > d.length {
		rps = d.length
	}
	if d.stripsPerImage == 0 {
		return rps
	}
	first := uint64(strip%d.stripsPerImage) * uint64(rps)
	if first >= uint64(d.length) {
		return 0
	}
	return uint32(min(uint64(rps), uint64(d.length)-first))
}

func (f *File) checkStrip(strip uint32) error {
	if strip >= f.dir.nstrips {
		return fmt.Errorf("%w: %d: strip out of range, max %d", ErrBadValue, strip, f.dir.nstrips)
	}
	return nil
}
