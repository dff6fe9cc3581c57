// Package tiff provides reading and writing of TIFF image files.
//
// A File is a handle on one TIFF stream. It walks the chain of image file
// directories, exposes their tags through a typed field registry, and
// reads or writes image data a scanline, strip or tile at a time through
// pluggable codecs. The RGBA layer converts any supported sample layout
// to packed 8-bit RGBA, and Image adapts a directory to image.Image.
package tiff

import (
	"fmt"
	"strings"
)

// DataType is the on-disk type of a directory entry.
type DataType uint16

// Directory entry types.
const (
	TypeAny       DataType = 0 // wildcard for field lookups; never written
	TypeByte      DataType = 1
	TypeASCII     DataType = 2
	TypeShort     DataType = 3
	TypeLong      DataType = 4
	TypeRational  DataType = 5
	TypeSByte     DataType = 6
	TypeUndefined DataType = 7
	TypeSShort    DataType = 8
	TypeSLong     DataType = 9
	TypeSRational DataType = 10
	TypeFloat     DataType = 11
	TypeDouble    DataType = 12
	TypeIFD       DataType = 13
)

var dataTypeNames = [...]string{
	"ANY", "BYTE", "ASCII", "SHORT", "LONG", "RATIONAL", "SBYTE",
	"UNDEFINED", "SSHORT", "SLONG", "SRATIONAL", "FLOAT", "DOUBLE", "IFD",
}

var dataTypeSizes = [...]int{0, 1, 1, 2, 4, 8, 1, 1, 2, 4, 8, 4, 8, 4}

// Size returns the byte size of one element, or 0 for unknown types.
func (t DataType) Size() int {
	if int(t) < len(dataTypeSizes) {
		return dataTypeSizes[t]
	}
	return 0
}

func (t DataType) String() string {
	if int(t) < len(dataTypeNames) {
		return dataTypeNames[t]
	}
	return fmt.Sprintf("TYPE(%d)", uint16(t))
}

// Valid reports whether t is a type that may appear in a file.
func (t DataType) Valid() bool {
	return t >= TypeByte && t <= TypeIFD
}

// Tag identifies a field. Values above 65535 are pseudo-tags: library
// controls that are never written to a file.
type Tag uint32

// IsPseudo reports whether t is a pseudo-tag.
func (t Tag) IsPseudo() bool { return t > 0xFFFF }

func (t Tag) String() string {
	if fi := builtinByTag(t); fi != nil {
		return fi.Name
	}
	for _, fi := range pseudoFieldInfo {
		if fi.Tag == t {
			return fi.Name
		}
	}
	return fmt.Sprintf("Tag %d", uint32(t))
}

// Baseline and extension tags.
const (
	TagSubfileType            Tag = 254
	TagOSubfileType           Tag = 255
	TagImageWidth             Tag = 256
	TagImageLength            Tag = 257
	TagBitsPerSample          Tag = 258
	TagCompression            Tag = 259
	TagPhotometric            Tag = 262
	TagThreshholding          Tag = 263
	TagCellWidth              Tag = 264
	TagCellLength             Tag = 265
	TagFillOrder              Tag = 266
	TagDocumentName           Tag = 269
	TagImageDescription       Tag = 270
	TagMake                   Tag = 271
	TagModel                  Tag = 272
	TagStripOffsets           Tag = 273
	TagOrientation            Tag = 274
	TagSamplesPerPixel        Tag = 277
	TagRowsPerStrip           Tag = 278
	TagStripByteCounts        Tag = 279
	TagMinSampleValue         Tag = 280
	TagMaxSampleValue         Tag = 281
	TagXResolution            Tag = 282
	TagYResolution            Tag = 283
	TagPlanarConfig           Tag = 284
	TagPageName               Tag = 285
	TagXPosition              Tag = 286
	TagYPosition              Tag = 287
	TagFreeOffsets            Tag = 288
	TagFreeByteCounts         Tag = 289
	TagGrayResponseUnit       Tag = 290
	TagGrayResponseCurve      Tag = 291
	TagT4Options              Tag = 292
	TagGroup3Options          Tag = 292
	TagT6Options              Tag = 293
	TagGroup4Options          Tag = 293
	TagResolutionUnit         Tag = 296
	TagPageNumber             Tag = 297
	TagTransferFunction       Tag = 301
	TagSoftware               Tag = 305
	TagDateTime               Tag = 306
	TagArtist                 Tag = 315
	TagHostComputer           Tag = 316
	TagPredictor              Tag = 317
	TagWhitePoint             Tag = 318
	TagPrimaryChromaticities  Tag = 319
	TagColorMap               Tag = 320
	TagHalftoneHints          Tag = 321
	TagTileWidth              Tag = 322
	TagTileLength             Tag = 323
	TagTileOffsets            Tag = 324
	TagTileByteCounts         Tag = 325
	TagBadFaxLines            Tag = 326
	TagCleanFaxData           Tag = 327
	TagConsecutiveBadFaxLines Tag = 328
	TagSubIFD                 Tag = 330
	TagInkSet                 Tag = 332
	TagInkNames               Tag = 333
	TagNumberOfInks           Tag = 334
	TagDotRange               Tag = 336
	TagTargetPrinter          Tag = 337
	TagExtraSamples           Tag = 338
	TagSampleFormat           Tag = 339
	TagSMinSampleValue        Tag = 340
	TagSMaxSampleValue        Tag = 341
	TagClipPath               Tag = 343
	TagXClipPathUnits         Tag = 344
	TagYClipPathUnits         Tag = 345
	TagJPEGTables             Tag = 347
	TagYCbCrCoefficients      Tag = 529
	TagYCbCrSubsampling       Tag = 530
	TagYCbCrPositioning       Tag = 531
	TagReferenceBlackWhite    Tag = 532
	TagXMLPacket              Tag = 700
	TagImageDepth             Tag = 32997
	TagTileDepth              Tag = 32998
	TagCopyright              Tag = 33432
	TagRichTIFFIPTC           Tag = 33723
	TagPhotoshop              Tag = 34377
	TagExifIFD                Tag = 34665
	TagICCProfile             Tag = 34675
	TagGPSIFD                 Tag = 34853
	TagImageSourceData        Tag = 37724
)

// Pseudo-tags. They are only known while the codec that owns them is
// bound to the directory.
const (
	TagFaxMode       Tag = 65536
	TagJPEGQuality   Tag = 65537
	TagJPEGColorMode Tag = 65538
	TagZipQuality    Tag = 65557
	TagZSTDLevel     Tag = 65564
)

// Compression schemes.
const (
	CompressionNone         = 1
	CompressionCCITTRLE     = 2
	CompressionCCITTFax3    = 3
	CompressionCCITTFax4    = 4
	CompressionLZW          = 5
	CompressionOJPEG        = 6
	CompressionJPEG         = 7
	CompressionAdobeDeflate = 8
	CompressionNeXT         = 32766
	CompressionCCITTRLEW    = 32771
	CompressionPackBits     = 32773
	CompressionThunderScan  = 32809
	CompressionPixarLog     = 32909
	CompressionDeflate      = 32946
	CompressionJBIG         = 34661
	CompressionSGILog       = 34676
	CompressionSGILog24     = 34677
	CompressionJPEG2000     = 34712
	CompressionLERC         = 34887
	CompressionLZMA         = 34925
	CompressionZSTD         = 50000
	CompressionWebP         = 50001
)

var compressionNames = map[uint16]string{
	CompressionNone:         "None",
	CompressionCCITTRLE:     "CCITT RLE",
	CompressionCCITTFax3:    "CCITT Group 3",
	CompressionCCITTFax4:    "CCITT Group 4",
	CompressionLZW:          "LZW",
	CompressionOJPEG:        "Old-style JPEG",
	CompressionJPEG:         "JPEG",
	CompressionAdobeDeflate: "AdobeDeflate",
	CompressionNeXT:         "NeXT",
	CompressionCCITTRLEW:    "CCITT RLEW",
	CompressionPackBits:     "PackBits",
	CompressionThunderScan:  "ThunderScan",
	CompressionPixarLog:     "PixarLog",
	CompressionDeflate:      "Deflate",
	CompressionJBIG:         "JBIG",
	CompressionSGILog:       "SGILog",
	CompressionSGILog24:     "SGILog24",
	CompressionJPEG2000:     "JPEG2000",
	CompressionLERC:         "LERC",
	CompressionLZMA:         "LZMA",
	CompressionZSTD:         "ZSTD",
	CompressionWebP:         "WebP",
}

// CompressionName returns a display name for a compression scheme.
func CompressionName(scheme uint16) string {
	if n, ok := compressionNames[scheme]; ok {
		return n
	}
	return fmt.Sprintf("Compression %d", scheme)
}

// CompressionByName looks up a scheme by its display name, ignoring case.
func CompressionByName(name string) (uint16, bool) {
	for scheme, n := range compressionNames {
		if strings.EqualFold(n, name) {
			return scheme, true
		}
	}
	return 0, false
}

// Photometric interpretations.
const (
	PhotometricMinIsWhite = 0
	PhotometricMinIsBlack = 1
	PhotometricRGB        = 2
	PhotometricPalette    = 3
	PhotometricMask       = 4
	PhotometricSeparated  = 5
	PhotometricYCbCr      = 6
	PhotometricCIELab     = 8
	PhotometricICCLab     = 9
	PhotometricITULab     = 10
	PhotometricLogL       = 32844
	PhotometricLogLuv     = 32845
)

// Planar configurations.
const (
	PlanarContig   = 1
	PlanarSeparate = 2
)

// Fill orders.
const (
	FillOrderMSB2LSB = 1
	FillOrderLSB2MSB = 2
)

// Orientations.
const (
	OrientationTopLeft  = 1
	OrientationTopRight = 2
	OrientationBotRight = 3
	OrientationBotLeft  = 4
	OrientationLeftTop  = 5
	OrientationRightTop = 6
	OrientationRightBot = 7
	OrientationLeftBot  = 8
)

// Resolution units.
const (
	ResUnitNone       = 1
	ResUnitInch       = 2
	ResUnitCentimeter = 3
)

// Extra sample kinds.
const (
	ExtraSampleUnspecified = 0
	ExtraSampleAssocAlpha  = 1
	ExtraSampleUnassAlpha  = 2
)

// Sample formats.
const (
	SampleFormatUInt          = 1
	SampleFormatInt           = 2
	SampleFormatIEEEFP        = 3
	SampleFormatVoid          = 4
	SampleFormatComplexInt    = 5
	SampleFormatComplexIEEEFP = 6
)

// Ink sets.
const (
	InkSetCMYK     = 1
	InkSetMultiInk = 2
)

// YCbCr positioning.
const (
	YCbCrPositionCentered = 1
	YCbCrPositionCosited  = 2
)

// Thresholding.
const (
	ThreshBilevel      = 1
	ThreshHalftone     = 2
	ThreshErrorDiffuse = 3
)

// SubfileType bits.
const (
	SubfileReducedImage = 1
	SubfilePage         = 2
	SubfileMask         = 4
)

// JPEG color modes for TagJPEGColorMode.
const (
	JPEGColorModeRaw = 0
	JPEGColorModeRGB = 1
)

// Group 3 options bits.
const (
	Group3Opt2DEncoding   = 1
	Group3OptUncompressed = 2
	Group3OptFillBits     = 4
)

// Fax modes for TagFaxMode.
const (
	FaxModeClassic   = 0
	FaxModeNoRTC     = 1
	FaxModeNoEOL     = 2
	FaxModeByteAlign = 4
	FaxModeWordAlign = 8
)
