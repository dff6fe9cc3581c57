package tiff

import (
	"fmt"
	"math"
	"slices"
)

type customEntry struct {
	info *FieldInfo
	val  Value
}

// Directory is the resolved state of one IFD. Well-known fields are held
// in typed form; everything else lives in an ordered list of custom
// entries. Which fields are defined is tracked by FieldBit.
//
// A Directory is owned by its File and changes whenever the File moves to
// another directory. Use File.SetField to modify it.
type Directory struct {
	fieldset uint64

	subfileType      uint32
	width, length    uint32
	depth            uint32
	tileWidth        uint32
	tileLength       uint32
	tileDepth        uint32
	bitsPerSample    uint16
	sampleFormat     uint16
	compression      uint16
	photometric      uint16
	threshholding    uint16
	fillOrder        uint16
	orientation      uint16
	samplesPerPixel  uint16
	rowsPerStrip     uint32
	minSampleValue   uint16
	maxSampleValue   uint16
	sminSampleValue  float64
	smaxSampleValue  float64
	xResolution      float64
	yResolution      float64
	resolutionUnit   uint16
	planarConfig     uint16
	xPosition        float64
	yPosition        float64
	pageNumber       [2]uint16
	colormap         [3][]uint16
	transfer         [3][]uint16
	extraSamples     []uint16
	ycbcrSubsampling [2]uint16
	ycbcrPositioning uint16
	predictor        uint16
	subIFDs          []uint64

	stripsPerImage  uint32
	nstrips         uint32
	stripOffsets    []uint64
	stripByteCounts []uint64
	stripsSorted    bool

	custom []customEntry
}

func newDirectory() *Directory {
	d := &Directory{}
	d.reset()
	return d
}

// reset installs the library defaults for an empty directory.
func (d *Directory) reset() {
	*d = Directory{
		bitsPerSample:    1,
		threshholding:    ThreshBilevel,
		orientation:      OrientationTopLeft,
		samplesPerPixel:  1,
		rowsPerStrip:     math.MaxUint32,
		maxSampleValue:   1,
		sminSampleValue:  -math.MaxFloat64,
		smaxSampleValue:  math.MaxFloat64,
		planarConfig:     PlanarContig,
		fillOrder:        FillOrderMSB2LSB,
		resolutionUnit:   ResUnitInch,
		sampleFormat:     SampleFormatUInt,
		compression:      CompressionNone,
		depth:            1,
		tileDepth:        1,
		stripsPerImage:   1,
		ycbcrSubsampling: [2]uint16{2, 2},
		ycbcrPositioning: YCbCrPositionCentered,
		predictor:        1,
		stripsSorted:     true,
	}
}

func (d *Directory) isSet(b FieldBit) bool { return d.fieldset&(1<<b) != 0 }
func (d *Directory) setBit(b FieldBit)     { d.fieldset |= 1 << b }
func (d *Directory) clearBit(b FieldBit)   { d.fieldset &^= 1 << b }

// Width returns ImageWidth.
func (d *Directory) Width() uint32 { return d.width }

// Length returns ImageLength.
func (d *Directory) Length() uint32 { return d.length }

// Depth returns ImageDepth.
func (d *Directory) Depth() uint32 { return d.depth }

// BitsPerSample returns BitsPerSample.
func (d *Directory) BitsPerSample() uint16 { return d.bitsPerSample }

// SamplesPerPixel returns SamplesPerPixel.
func (d *Directory) SamplesPerPixel() uint16 { return d.samplesPerPixel }

// SampleFormat returns SampleFormat.
func (d *Directory) SampleFormat() uint16 { return d.sampleFormat }

// Compression returns the compression scheme.
func (d *Directory) Compression() uint16 { return d.compression }

// Photometric returns the photometric interpretation and whether it is set.
func (d *Directory) Photometric() (uint16, bool) {
	return d.photometric, d.isSet(FieldPhotometric)
}

// PlanarConfig returns PlanarConfiguration.
func (d *Directory) PlanarConfig() uint16 { return d.planarConfig }

// Orientation returns Orientation.
func (d *Directory) Orientation() uint16 { return d.orientation }

// RowsPerStrip returns RowsPerStrip.
func (d *Directory) RowsPerStrip() uint32 { return d.rowsPerStrip }

// TileSize returns the tile width, length and depth.
func (d *Directory) TileSize() (w, l, depth uint32) {
	return d.tileWidth, d.tileLength, d.tileDepth
}

// ExtraSamples returns a copy of ExtraSamples.
func (d *Directory) ExtraSamples() []uint16 { return slices.Clone(d.extraSamples) }

// YCbCrSubsampling returns the horizontal and vertical chroma subsampling.
func (d *Directory) YCbCrSubsampling() (h, v uint16) {
	return d.ycbcrSubsampling[0], d.ycbcrSubsampling[1]
}

// StripOffsets returns a copy of the strip or tile offsets.
func (d *Directory) StripOffsets() []uint64 { return slices.Clone(d.stripOffsets) }

// StripByteCounts returns a copy of the strip or tile byte counts.
func (d *Directory) StripByteCounts() []uint64 { return slices.Clone(d.stripByteCounts) }

func (d *Directory) findCustom(tag Tag) int {
	return slices.IndexFunc(d.custom, func(e customEntry) bool { return e.info.Tag == tag })
}

func (d *Directory) isTagSet(fi *FieldInfo) bool {
	if fi.Bit == FieldCustom {
		return d.findCustom(fi.Tag) >= 0
	}
	return fi.Bit != FieldIgnore && fi.Bit != FieldPseudo && d.isSet(fi.Bit)
}

func enumValue(v Value, lo, hi uint16) (uint16, error) {
	x, err := v.Uint16()
	if err != nil {
		return 0, err
	}
	if x < lo || x > hi {
		return 0, fmt.Errorf("%w: %d not in [%d,%d]", ErrBadValue, x, lo, hi)
	}
	return x, nil
}

func checkCount(fi *FieldInfo, v Value, spp uint16) error {
	n := v.elems()
	switch {
	case fi.WriteCount > 0:
		if n != int(fi.WriteCount) {
			return fmt.Errorf("%w: %d values, want %d", ErrCount, n, fi.WriteCount)
		}
	case fi.WriteCount == CountPerSample:
		if n != int(spp) {
			return fmt.Errorf("%w: %d values, want one per sample (%d)", ErrCount, n, spp)
		}
	default:
		if n == 0 {
			return fmt.Errorf("%w: empty value", ErrCount)
		}
	}
	return nil
}

// set validates v for fi and stores it. The directory is unchanged when
// an error is returned. v must already be coerced to fi.Type.
func (d *Directory) set(fi *FieldInfo, v Value) error {
	if err := checkCount(fi, v, d.samplesPerPixel); err != nil {
		return err
	}
	switch fi.Tag {
	case TagSubfileType:
		x, err := v.Uint32()
		if err != nil {
			return err
		}
		d.subfileType = x
	case TagImageWidth, TagImageLength, TagImageDepth:
		x, err := v.Uint32()
		if err != nil {
			return err
		}
		switch fi.Tag {
		case TagImageWidth:
			d.width = x
		case TagImageLength:
			d.length = x
		default:
			if x == 0 {
				return fmt.Errorf("%w: ImageDepth must be positive", ErrBadValue)
			}
			d.depth = x
		}
	case TagTileWidth, TagTileLength, TagTileDepth:
		x, err := v.Uint32()
		if err != nil {
			return err
		}
		if x == 0 {
			return fmt.Errorf("%w: tile dimension must be positive", ErrBadValue)
		}
		switch fi.Tag {
		case TagTileWidth:
			d.tileWidth = x
		case TagTileLength:
			d.tileLength = x
		default:
			d.tileDepth = x
		}
	case TagBitsPerSample:
		x, err := enumValue(v, 1, 64)
		if err != nil {
			return err
		}
		d.bitsPerSample = x
		if !d.isSet(FieldMaxSampleValue) {
			d.maxSampleValue = defaultMaxSample(x)
		}
	case TagCompression:
		x, err := v.Uint16()
		if err != nil {
			return err
		}
		d.compression = x
	case TagPhotometric:
		x, err := v.Uint16()
		if err != nil {
			return err
		}
		d.photometric = x
	case TagThreshholding:
		x, err := enumValue(v, ThreshBilevel, ThreshErrorDiffuse)
		if err != nil {
			return err
		}
		d.threshholding = x
	case TagFillOrder:
		x, err := enumValue(v, FillOrderMSB2LSB, FillOrderLSB2MSB)
		if err != nil {
			return err
		}
		d.fillOrder = x
	case TagOrientation:
		x, err := enumValue(v, OrientationTopLeft, OrientationLeftBot)
		if err != nil {
			return err
		}
		d.orientation = x
	case TagSamplesPerPixel:
		x, err := enumValue(v, 1, math.MaxUint16)
		if err != nil {
			return err
		}
		if len(d.extraSamples) > int(x) {
			return fmt.Errorf("%w: SamplesPerPixel %d is less than %d ExtraSamples", ErrBadValue, x, len(d.extraSamples))
		}
		d.samplesPerPixel = x
	case TagRowsPerStrip:
		x, err := v.Uint32()
		if err != nil {
			return err
		}
		if x == 0 {
			return fmt.Errorf("%w: RowsPerStrip must be positive", ErrBadValue)
		}
		d.rowsPerStrip = x
	case TagMinSampleValue, TagMaxSampleValue:
		x, err := v.Uint16()
		if err != nil {
			return err
		}
		if fi.Tag == TagMinSampleValue {
			d.minSampleValue = x
		} else {
			d.maxSampleValue = x
		}
	case TagSMinSampleValue, TagSMaxSampleValue:
		x, err := v.Float64()
		if err != nil {
			return err
		}
		if fi.Tag == TagSMinSampleValue {
			d.sminSampleValue = x
		} else {
			d.smaxSampleValue = x
		}
	case TagXResolution, TagYResolution, TagXPosition, TagYPosition:
		x, err := v.Float64()
		if err != nil {
			return err
		}
		switch fi.Tag {
		case TagXResolution:
			d.xResolution = x
		case TagYResolution:
			d.yResolution = x
		case TagXPosition:
			d.xPosition = x
		default:
			d.yPosition = x
		}
	case TagPlanarConfig:
		x, err := enumValue(v, PlanarContig, PlanarSeparate)
		if err != nil {
			return err
		}
		d.planarConfig = x
	case TagResolutionUnit:
		x, err := enumValue(v, ResUnitNone, ResUnitCentimeter)
		if err != nil {
			return err
		}
		d.resolutionUnit = x
	case TagPageNumber:
		x, err := v.Uint16s()
		if err != nil {
			return err
		}
		d.pageNumber = [2]uint16{x[0], x[1]}
	case TagStripOffsets, TagTileOffsets, TagStripByteCounts, TagTileByteCounts:
		x, err := v.Uint64s()
		if err != nil {
			return err
		}
		if d.nstrips == 0 {
			d.setupStrips()
		}
		if len(x) != int(d.nstrips) {
			return fmt.Errorf("%w: %d values for %d strips", ErrCount, len(x), d.nstrips)
		}
		if fi.Bit == FieldStripOffsets {
			d.stripOffsets = x
		} else {
			d.stripByteCounts = x
		}
	case TagColorMap:
		x, err := v.Uint16s()
		if err != nil {
			return err
		}
		if d.bitsPerSample > 16 {
			return fmt.Errorf("%w: ColorMap with %d bits per sample", ErrBadValue, d.bitsPerSample)
		}
		n := 1 << d.bitsPerSample
		if len(x) != 3*n {
			return fmt.Errorf("%w: ColorMap has %d values, want %d", ErrCount, len(x), 3*n)
		}
		d.colormap = [3][]uint16{x[:n:n], x[n : 2*n : 2*n], x[2*n:]}
	case TagTransferFunction:
		x, err := v.Uint16s()
		if err != nil {
			return err
		}
		if d.bitsPerSample > 16 {
			return fmt.Errorf("%w: TransferFunction with %d bits per sample", ErrBadValue, d.bitsPerSample)
		}
		n := 1 << d.bitsPerSample
		switch len(x) {
		case n:
			d.transfer = [3][]uint16{x, nil, nil}
		case 3 * n:
			d.transfer = [3][]uint16{x[:n:n], x[n : 2*n : 2*n], x[2*n:]}
		default:
			return fmt.Errorf("%w: TransferFunction has %d values, want %d or %d", ErrCount, len(x), n, 3*n)
		}
	case TagExtraSamples:
		x, err := v.Uint16s()
		if err != nil {
			return err
		}
		if len(x) > int(d.samplesPerPixel) {
			return fmt.Errorf("%w: %d ExtraSamples for %d samples per pixel", ErrBadValue, len(x), d.samplesPerPixel)
		}
		for i, s := range x {
			switch s {
			case ExtraSampleUnspecified, ExtraSampleAssocAlpha, ExtraSampleUnassAlpha:
			case 999:
				// Some writers used 999 for unassociated alpha.
				x[i] = ExtraSampleUnassAlpha
			default:
				return fmt.Errorf("%w: ExtraSamples value %d", ErrBadValue, s)
			}
		}
		d.extraSamples = x
	case TagSampleFormat:
		x, err := enumValue(v, SampleFormatUInt, SampleFormatComplexIEEEFP)
		if err != nil {
			return err
		}
		d.sampleFormat = x
	case TagYCbCrSubsampling:
		x, err := v.Uint16s()
		if err != nil {
			return err
		}
		for _, s := range x {
			if s != 1 && s != 2 && s != 4 {
				return fmt.Errorf("%w: YCbCrSubsampling %v", ErrBadValue, x)
			}
		}
		d.ycbcrSubsampling = [2]uint16{x[0], x[1]}
	case TagYCbCrPositioning:
		x, err := enumValue(v, YCbCrPositionCentered, YCbCrPositionCosited)
		if err != nil {
			return err
		}
		d.ycbcrPositioning = x
	case TagPredictor:
		x, err := enumValue(v, 1, 3)
		if err != nil {
			return err
		}
		d.predictor = x
	case TagSubIFD:
		x, err := v.Uint64s()
		if err != nil {
			return err
		}
		d.subIFDs = x
	default:
		if fi.Bit != FieldCustom {
			return fmt.Errorf("%w: %s has no storage", ErrUnknownTag, fi.Name)
		}
		if i := d.findCustom(fi.Tag); i >= 0 {
			d.custom[i] = customEntry{info: fi, val: v}
		} else {
			d.custom = append(d.custom, customEntry{info: fi, val: v})
		}
		return nil
	}
	d.setBit(fi.Bit)
	return nil
}

// unset clears a field. Well-known fields fall back to their defaults.
func (d *Directory) unset(fi *FieldInfo) {
	if fi.Bit == FieldCustom {
		if i := d.findCustom(fi.Tag); i >= 0 {
			d.custom = slices.Delete(d.custom, i, i+1)
		}
		return
	}
	switch fi.Bit {
	case FieldColorMap:
		d.colormap = [3][]uint16{}
	case FieldTransferFunction:
		d.transfer = [3][]uint16{}
	case FieldExtraSamples:
		d.extraSamples = nil
	case FieldSubIFD:
		d.subIFDs = nil
	case FieldPhotometric:
		d.photometric = 0
	}
	d.clearBit(fi.Bit)
}

// get returns the stored value for fi, if defined.
func (d *Directory) get(fi *FieldInfo) (Value, bool) {
	if fi.Bit == FieldCustom {
		if i := d.findCustom(fi.Tag); i >= 0 {
			return d.custom[i].val, true
		}
		return Value{}, false
	}
	if !d.isTagSet(fi) {
		return Value{}, false
	}
	return d.value(fi.Tag)
}

// value renders a well-known field as a Value regardless of whether it
// is defined.
func (d *Directory) value(tag Tag) (Value, bool) {
	switch tag {
	case TagSubfileType:
		return Uint(uint64(d.subfileType)), true
	case TagImageWidth:
		return Uint(uint64(d.width)), true
	case TagImageLength:
		return Uint(uint64(d.length)), true
	case TagImageDepth:
		return Uint(uint64(d.depth)), true
	case TagTileWidth:
		return Uint(uint64(d.tileWidth)), true
	case TagTileLength:
		return Uint(uint64(d.tileLength)), true
	case TagTileDepth:
		return Uint(uint64(d.tileDepth)), true
	case TagBitsPerSample:
		return Uint(uint64(d.bitsPerSample)), true
	case TagCompression:
		return Uint(uint64(d.compression)), true
	case TagPhotometric:
		return Uint(uint64(d.photometric)), true
	case TagThreshholding:
		return Uint(uint64(d.threshholding)), true
	case TagFillOrder:
		return Uint(uint64(d.fillOrder)), true
	case TagOrientation:
		return Uint(uint64(d.orientation)), true
	case TagSamplesPerPixel:
		return Uint(uint64(d.samplesPerPixel)), true
	case TagRowsPerStrip:
		return Uint(uint64(d.rowsPerStrip)), true
	case TagMinSampleValue:
		return Uint(uint64(d.minSampleValue)), true
	case TagMaxSampleValue:
		return Uint(uint64(d.maxSampleValue)), true
	case TagSMinSampleValue:
		return Double(d.sminSampleValue), true
	case TagSMaxSampleValue:
		return Double(d.smaxSampleValue), true
	case TagXResolution:
		return Double(d.xResolution), true
	case TagYResolution:
		return Double(d.yResolution), true
	case TagXPosition:
		return Double(d.xPosition), true
	case TagYPosition:
		return Double(d.yPosition), true
	case TagPlanarConfig:
		return Uint(uint64(d.planarConfig)), true
	case TagResolutionUnit:
		return Uint(uint64(d.resolutionUnit)), true
	case TagPageNumber:
		return Uint16s(d.pageNumber[:]...), true
	case TagStripOffsets, TagTileOffsets:
		return Uint64s(d.stripOffsets...), true
	case TagStripByteCounts, TagTileByteCounts:
		return Uint64s(d.stripByteCounts...), true
	case TagColorMap:
		if d.colormap[0] == nil {
			return Value{}, false
		}
		return Uint16s(slices.Concat(d.colormap[0], d.colormap[1], d.colormap[2])...), true
	case TagTransferFunction:
		if d.transfer[0] == nil {
			return Value{}, false
		}
		return Uint16s(slices.Concat(d.transfer[0], d.transfer[1], d.transfer[2])...), true
	case TagExtraSamples:
		return Uint16s(d.extraSamples...), true
	case TagSampleFormat:
		return Uint(uint64(d.sampleFormat)), true
	case TagYCbCrSubsampling:
		return Uint16s(d.ycbcrSubsampling[:]...), true
	case TagYCbCrPositioning:
		return Uint(uint64(d.ycbcrPositioning)), true
	case TagPredictor:
		return Uint(uint64(d.predictor)), true
	case TagSubIFD:
		return Uint64s(d.subIFDs...), true
	}
	return Value{}, false
}

func defaultMaxSample(bps uint16) uint16 {
	if bps >= 16 {
		return math.MaxUint16
	}
	return uint16(1)<<bps - 1
}

// D50 chromaticity used when WhitePoint is absent.
const (
	d50X = 0.34451
	d50Y = 0.35728
)

// defaultValue returns the value a field takes when it is not defined.
func (d *Directory) defaultValue(tag Tag) (Value, bool) {
	switch tag {
	case TagSubfileType, TagBitsPerSample, TagThreshholding, TagFillOrder,
		TagOrientation, TagSamplesPerPixel, TagRowsPerStrip, TagMinSampleValue,
		TagMaxSampleValue, TagPlanarConfig, TagResolutionUnit, TagPredictor,
		TagSampleFormat, TagImageDepth, TagTileDepth, TagYCbCrSubsampling,
		TagYCbCrPositioning, TagCompression, TagSMinSampleValue, TagSMaxSampleValue:
		return d.value(tag)
	case TagExtraSamples:
		return Uint16s(), true
	case TagYCbCrCoefficients:
		return Doubles(0.299, 0.587, 0.114), true
	case TagReferenceBlackWhite:
		if d.photometric == PhotometricYCbCr {
			return Doubles(0, 255, 128, 255, 128, 255), true
		}
		top := float64(uint64(1)<<min(d.bitsPerSample, 32) - 1)
		return Doubles(0, top, 0, top, 0, top), true
	case TagInkSet:
		return Uint(InkSetCMYK), true
	case TagWhitePoint:
		return Doubles(d50X, d50Y), true
	case TagTransferFunction:
		if d.bitsPerSample > 16 {
			return Value{}, false
		}
		n := 1 << d.bitsPerSample
		t := make([]uint16, n)
		for i := range t {
			t[i] = uint16(math.Floor(65535*math.Pow(float64(i)/float64(n-1), 2.2) + 0.5))
		}
		if int(d.samplesPerPixel)-len(d.extraSamples) > 1 {
			return Uint16s(slices.Concat(t, t, t)...), true
		}
		return Uint16s(t...), true
	}
	return Value{}, false
}

// customValue returns a custom field by tag.
func (d *Directory) customValue(tag Tag) (Value, bool) {
	if i := d.findCustom(tag); i >= 0 {
		return d.custom[i].val, true
	}
	return Value{}, false
}

// floatsOrDefault returns a custom RATIONAL array, falling back to its
// default.
func (d *Directory) floatsOrDefault(tag Tag) []float64 {
	v, ok := d.customValue(tag)
	if !ok {
		v, ok = d.defaultValue(tag)
	}
	if !ok {
		return nil
	}
	f, _ := v.Float64s()
	return f
}

// definedTags returns every defined tag in ascending order. Tags sharing
// a FieldBit are all listed.
func (d *Directory) definedTags(reg *FieldRegistry) []Tag {
	var tags []Tag
	seen := make(map[Tag]bool)
	for _, fi := range reg.fields {
		if seen[fi.Tag] || fi.Bit == FieldCustom || fi.Bit == FieldPseudo || fi.Bit == FieldIgnore {
			continue
		}
		if !d.isSet(fi.Bit) {
			continue
		}
		if (fi.Tag == TagTileOffsets || fi.Tag == TagTileByteCounts) != d.isSet(FieldTileDimensions) {
			if fi.Bit == FieldStripOffsets || fi.Bit == FieldStripByteCounts {
				continue
			}
		}
		if _, ok := d.value(fi.Tag); !ok {
			continue
		}
		seen[fi.Tag] = true
		tags = append(tags, fi.Tag)
	}
	for _, e := range d.custom {
		if !seen[e.info.Tag] {
			seen[e.info.Tag] = true
			tags = append(tags, e.info.Tag)
		}
	}
	slices.Sort(tags)
	return tags
}
