package tiff

import (
	"bufio"
	"fmt"
	"io"
)

// PrintFlags select optional sections of PrintDirectoryFlags output.
type PrintFlags uint8

const (
	PrintStrips   PrintFlags = 1 << iota // strip or tile offsets and sizes
	PrintColorMap                        // every ColorMap entry
	PrintCurves                          // every TransferFunction entry
)

var photometricNames = [...]string{
	PhotometricMinIsWhite: "min-is-white",
	PhotometricMinIsBlack: "min-is-black",
	PhotometricRGB:        "RGB color",
	PhotometricPalette:    "palette color (RGB from colormap)",
	PhotometricMask:       "transparency mask",
	PhotometricSeparated:  "separated",
	PhotometricYCbCr:      "YCbCr",
	PhotometricCIELab:     "CIE L*a*b*",
	PhotometricICCLab:     "ICC L*a*b*",
	PhotometricITULab:     "ITU L*a*b*",
}

// PhotometricName returns a readable name for a PhotometricInterpretation
// value.
func PhotometricName(p uint16) string {
	if int(p) < len(photometricNames) && photometricNames[p] != "" {
		return photometricNames[p]
	}
	switch p {
	case PhotometricLogL:
		return "CIE Log2(L)"
	case PhotometricLogLuv:
		return "CIE Log2(L) (u',v')"
	}
	return fmt.Sprintf("%d (0x%x)", p, p)
}

var orientationNames = [...]string{
	OrientationTopLeft:  "row 0 top, col 0 lhs",
	OrientationTopRight: "row 0 top, col 0 rhs",
	OrientationBotRight: "row 0 bottom, col 0 rhs",
	OrientationBotLeft:  "row 0 bottom, col 0 lhs",
	OrientationLeftTop:  "row 0 lhs, col 0 top",
	OrientationRightTop: "row 0 rhs, col 0 top",
	OrientationRightBot: "row 0 rhs, col 0 bottom",
	OrientationLeftBot:  "row 0 lhs, col 0 bottom",
}

// PrintDirectory writes a description of the current directory to w.
func (f *File) PrintDirectory(w io.Writer) error {
	return f.PrintDirectoryFlags(w, 0)
}

// PrintDirectoryFlags is PrintDirectory with optional sections.
func (f *File) PrintDirectoryFlags(w io.Writer, flags PrintFlags) error {
	bw := bufio.NewWriter(w)
	d := f.dir
	fmt.Fprintf(bw, "TIFF Directory at offset 0x%x (%d)\n", f.diroff, f.diroff)

	if d.isSet(FieldSubfileType) {
		fmt.Fprintf(bw, "  Subfile Type:")
		sep := " "
		for _, st := range []struct {
			bit  uint32
			name string
		}{
			{SubfileReducedImage, "reduced-resolution image"},
			{SubfilePage, "multi-page document"},
			{SubfileMask, "transparency mask"},
		} {
			if d.subfileType&st.bit != 0 {
				fmt.Fprintf(bw, "%s%s", sep, st.name)
				sep = "/"
			}
		}
		fmt.Fprintf(bw, " (%d = 0x%x)\n", d.subfileType, d.subfileType)
	}
	if d.isSet(FieldImageDimensions) {
		fmt.Fprintf(bw, "  Image Width: %d Image Length: %d", d.width, d.length)
		if d.isSet(FieldImageDepth) {
			fmt.Fprintf(bw, " Image Depth: %d", d.depth)
		}
		fmt.Fprintln(bw)
	}
	if d.isSet(FieldTileDimensions) {
		fmt.Fprintf(bw, "  Tile Width: %d Tile Length: %d", d.tileWidth, d.tileLength)
		if d.isSet(FieldTileDepth) {
			fmt.Fprintf(bw, " Tile Depth: %d", d.tileDepth)
		}
		fmt.Fprintln(bw)
	}
	if d.isSet(FieldResolution) {
		fmt.Fprintf(bw, "  Resolution: %g, %g", d.xResolution, d.yResolution)
		if d.isSet(FieldResolutionUnit) {
			switch d.resolutionUnit {
			case ResUnitNone:
				fmt.Fprint(bw, " (unitless)")
			case ResUnitInch:
				fmt.Fprint(bw, " pixels/inch")
			case ResUnitCentimeter:
				fmt.Fprint(bw, " pixels/cm")
			default:
				fmt.Fprintf(bw, " (unit %d)", d.resolutionUnit)
			}
		}
		fmt.Fprintln(bw)
	}
	if d.isSet(FieldPosition) {
		fmt.Fprintf(bw, "  Position: %g, %g\n", d.xPosition, d.yPosition)
	}
	if d.isSet(FieldBitsPerSample) {
		fmt.Fprintf(bw, "  Bits/Sample: %d\n", d.bitsPerSample)
	}
	if d.isSet(FieldSampleFormat) {
		fmt.Fprintf(bw, "  Sample Format: %s\n", sampleFormatName(d.sampleFormat))
	}
	if d.isSet(FieldCompression) {
		fmt.Fprintf(bw, "  Compression Scheme: %s\n", CompressionName(d.compression))
	}
	if d.isSet(FieldPhotometric) {
		fmt.Fprintf(bw, "  Photometric Interpretation: %s\n", PhotometricName(d.photometric))
	}
	if d.isSet(FieldExtraSamples) && len(d.extraSamples) > 0 {
		fmt.Fprintf(bw, "  Extra Samples: %d<", len(d.extraSamples))
		for i, es := range d.extraSamples {
			if i > 0 {
				fmt.Fprint(bw, ", ")
			}
			switch es {
			case ExtraSampleUnspecified:
				fmt.Fprint(bw, "unspecified")
			case ExtraSampleAssocAlpha:
				fmt.Fprint(bw, "assoc-alpha")
			case ExtraSampleUnassAlpha:
				fmt.Fprint(bw, "unassoc-alpha")
			default:
				fmt.Fprintf(bw, "%d (0x%x)", es, es)
			}
		}
		fmt.Fprintln(bw, ">")
	}
	if d.isSet(FieldThreshholding) {
		fmt.Fprintf(bw, "  Thresholding: %d\n", d.threshholding)
	}
	if d.isSet(FieldFillOrder) {
		name := "msb-to-lsb"
		if d.fillOrder == FillOrderLSB2MSB {
			name = "lsb-to-msb"
		}
		fmt.Fprintf(bw, "  FillOrder: %s\n", name)
	}
	if d.isSet(FieldYCbCrSubsampling) {
		fmt.Fprintf(bw, "  YCbCr Subsampling: %d, %d\n", d.ycbcrSubsampling[0], d.ycbcrSubsampling[1])
	}
	if d.isSet(FieldYCbCrPositioning) {
		name := "centered"
		if d.ycbcrPositioning == YCbCrPositionCosited {
			name = "cosited"
		}
		fmt.Fprintf(bw, "  YCbCr Positioning: %s\n", name)
	}
	if d.isSet(FieldOrientation) {
		name := fmt.Sprintf("%d (0x%x)", d.orientation, d.orientation)
		if int(d.orientation) < len(orientationNames) && orientationNames[d.orientation] != "" {
			name = orientationNames[d.orientation]
		}
		fmt.Fprintf(bw, "  Orientation: %s\n", name)
	}
	if d.isSet(FieldSamplesPerPixel) {
		fmt.Fprintf(bw, "  Samples/Pixel: %d\n", d.samplesPerPixel)
	}
	if d.isSet(FieldRowsPerStrip) {
		if d.rowsPerStrip == 1<<32-1 {
			fmt.Fprintln(bw, "  Rows/Strip: (infinite)")
		} else {
			fmt.Fprintf(bw, "  Rows/Strip: %d\n", d.rowsPerStrip)
		}
	}
	if d.isSet(FieldMinSampleValue) {
		fmt.Fprintf(bw, "  Min Sample Value: %d\n", d.minSampleValue)
	}
	if d.isSet(FieldMaxSampleValue) {
		fmt.Fprintf(bw, "  Max Sample Value: %d\n", d.maxSampleValue)
	}
	if d.isSet(FieldSMinSampleValue) {
		fmt.Fprintf(bw, "  SMin Sample Value: %g\n", d.sminSampleValue)
	}
	if d.isSet(FieldSMaxSampleValue) {
		fmt.Fprintf(bw, "  SMax Sample Value: %g\n", d.smaxSampleValue)
	}
	if d.isSet(FieldPlanarConfig) {
		switch d.planarConfig {
		case PlanarContig:
			fmt.Fprintln(bw, "  Planar Configuration: single image plane")
		case PlanarSeparate:
			fmt.Fprintln(bw, "  Planar Configuration: separate image planes")
		default:
			fmt.Fprintf(bw, "  Planar Configuration: %d (0x%x)\n", d.planarConfig, d.planarConfig)
		}
	}
	if d.isSet(FieldPageNumber) {
		fmt.Fprintf(bw, "  Page Number: %d-%d\n", d.pageNumber[0], d.pageNumber[1])
	}
	if d.isSet(FieldPredictor) {
		fmt.Fprintf(bw, "  Predictor: %d\n", d.predictor)
	}
	if d.isSet(FieldColorMap) {
		fmt.Fprint(bw, "  Color Map: ")
		if flags&PrintColorMap == 0 {
			fmt.Fprintln(bw, "(present)")
		} else {
			fmt.Fprintln(bw)
			for i := range d.colormap[0] {
				fmt.Fprintf(bw, "   %5d: %5d %5d %5d\n", i, d.colormap[0][i], d.colormap[1][i], d.colormap[2][i])
			}
		}
	}
	if d.isSet(FieldTransferFunction) {
		fmt.Fprint(bw, "  Transfer Function: ")
		if flags&PrintCurves == 0 {
			fmt.Fprintln(bw, "(present)")
		} else {
			fmt.Fprintln(bw)
			for i := range d.transfer[0] {
				fmt.Fprintf(bw, "    %2d: %5d", i, d.transfer[0][i])
				for c := 1; c < 3; c++ {
					if d.transfer[c] != nil {
						fmt.Fprintf(bw, " %5d", d.transfer[c][i])
					}
				}
				fmt.Fprintln(bw)
			}
		}
	}
	if d.isSet(FieldSubIFD) && len(d.subIFDs) > 0 {
		fmt.Fprint(bw, "  SubIFD Offsets:")
		for _, off := range d.subIFDs {
			fmt.Fprintf(bw, " %5d", off)
		}
		fmt.Fprintln(bw)
	}

	for _, e := range d.custom {
		fmt.Fprintf(bw, "  %s: %s\n", e.info.Name, e.val)
	}
	if fc, ok := f.codec.(FieldCodec); ok {
		for _, fi := range fc.Fields() {
			if v, ok := fc.GetField(fi.Tag); ok {
				fmt.Fprintf(bw, "  %s: %s\n", fi.Name, v)
			}
		}
	}

	if flags&PrintStrips != 0 && d.isSet(FieldStripOffsets) {
		noun := "Strip"
		if f.IsTiled() {
			noun = "Tile"
		}
		fmt.Fprintf(bw, "  %d %ss:\n", d.nstrips, noun)
		for i := range d.nstrips {
			fmt.Fprintf(bw, "    %3d: [%8d, %8d]\n", i, d.stripOffsets[i], d.stripByteCounts[i])
		}
	}
	return bw.Flush()
}

func sampleFormatName(sf uint16) string {
	switch sf {
	case SampleFormatUInt:
		return "unsigned integer"
	case SampleFormatInt:
		return "signed integer"
	case SampleFormatIEEEFP:
		return "IEEE floating point"
	case SampleFormatVoid:
		return "void"
	case SampleFormatComplexInt:
		return "complex signed integer"
	case SampleFormatComplexIEEEFP:
		return "complex IEEE floating point"
	}
	return fmt.Sprintf("%d (0x%x)", sf, sf)
}
