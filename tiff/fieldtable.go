package tiff

const (
	rw = true  // may change after the first write
	ro = false // fixed once the directory has been written
)

var builtinFields = []FieldInfo{
	{TagSubfileType, 1, 1, TypeLong, FieldSubfileType, rw, false, "SubfileType"},
	{TagOSubfileType, 1, 1, TypeShort, FieldCustom, rw, false, "OldSubfileType"},
	{TagImageWidth, 1, 1, TypeLong, FieldImageDimensions, ro, false, "ImageWidth"},
	{TagImageWidth, 1, 1, TypeShort, FieldImageDimensions, ro, false, "ImageWidth"},
	{TagImageLength, 1, 1, TypeLong, FieldImageDimensions, ro, false, "ImageLength"},
	{TagImageLength, 1, 1, TypeShort, FieldImageDimensions, ro, false, "ImageLength"},
	{TagBitsPerSample, CountPerSample, 1, TypeShort, FieldBitsPerSample, ro, false, "BitsPerSample"},
	{TagCompression, 1, 1, TypeShort, FieldCompression, ro, false, "Compression"},
	{TagPhotometric, 1, 1, TypeShort, FieldPhotometric, ro, false, "PhotometricInterpretation"},
	{TagThreshholding, 1, 1, TypeShort, FieldThreshholding, rw, false, "Threshholding"},
	{TagCellWidth, 1, 1, TypeShort, FieldCustom, rw, false, "CellWidth"},
	{TagCellLength, 1, 1, TypeShort, FieldCustom, rw, false, "CellLength"},
	{TagFillOrder, 1, 1, TypeShort, FieldFillOrder, ro, false, "FillOrder"},
	{TagDocumentName, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "DocumentName"},
	{TagImageDescription, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "ImageDescription"},
	{TagMake, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "Make"},
	{TagModel, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "Model"},
	{TagStripOffsets, CountVariable, CountVariable, TypeLong, FieldStripOffsets, ro, false, "StripOffsets"},
	{TagStripOffsets, CountVariable, CountVariable, TypeShort, FieldStripOffsets, ro, false, "StripOffsets"},
	{TagOrientation, 1, 1, TypeShort, FieldOrientation, rw, false, "Orientation"},
	{TagSamplesPerPixel, 1, 1, TypeShort, FieldSamplesPerPixel, ro, false, "SamplesPerPixel"},
	{TagRowsPerStrip, 1, 1, TypeLong, FieldRowsPerStrip, ro, false, "RowsPerStrip"},
	{TagRowsPerStrip, 1, 1, TypeShort, FieldRowsPerStrip, ro, false, "RowsPerStrip"},
	{TagStripByteCounts, CountVariable, CountVariable, TypeLong, FieldStripByteCounts, ro, false, "StripByteCounts"},
	{TagStripByteCounts, CountVariable, CountVariable, TypeShort, FieldStripByteCounts, ro, false, "StripByteCounts"},
	{TagMinSampleValue, CountPerSample, 1, TypeShort, FieldMinSampleValue, rw, false, "MinSampleValue"},
	{TagMaxSampleValue, CountPerSample, 1, TypeShort, FieldMaxSampleValue, rw, false, "MaxSampleValue"},
	{TagXResolution, 1, 1, TypeRational, FieldResolution, rw, false, "XResolution"},
	{TagYResolution, 1, 1, TypeRational, FieldResolution, rw, false, "YResolution"},
	{TagPlanarConfig, 1, 1, TypeShort, FieldPlanarConfig, ro, false, "PlanarConfiguration"},
	{TagPageName, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "PageName"},
	{TagXPosition, 1, 1, TypeRational, FieldPosition, rw, false, "XPosition"},
	{TagYPosition, 1, 1, TypeRational, FieldPosition, rw, false, "YPosition"},
	{TagFreeOffsets, CountVariable, CountVariable, TypeLong, FieldCustom, ro, true, "FreeOffsets"},
	{TagFreeByteCounts, CountVariable, CountVariable, TypeLong, FieldCustom, ro, true, "FreeByteCounts"},
	{TagGrayResponseUnit, 1, 1, TypeShort, FieldCustom, rw, false, "GrayResponseUnit"},
	{TagGrayResponseCurve, CountVariable, CountVariable, TypeShort, FieldCustom, rw, true, "GrayResponseCurve"},
	{TagT4Options, 1, 1, TypeLong, FieldCustom, ro, false, "T4Options"},
	{TagGroup3Options, 1, 1, TypeLong, FieldCustom, ro, false, "Group3Options"},
	{TagT6Options, 1, 1, TypeLong, FieldCustom, ro, false, "T6Options"},
	{TagGroup4Options, 1, 1, TypeLong, FieldCustom, ro, false, "Group4Options"},
	{TagResolutionUnit, 1, 1, TypeShort, FieldResolutionUnit, rw, false, "ResolutionUnit"},
	{TagPageNumber, 2, 2, TypeShort, FieldPageNumber, rw, false, "PageNumber"},
	{TagTransferFunction, CountVariable, CountVariable, TypeShort, FieldTransferFunction, rw, false, "TransferFunction"},
	{TagSoftware, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "Software"},
	{TagDateTime, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "DateTime"},
	{TagArtist, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "Artist"},
	{TagHostComputer, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "HostComputer"},
	{TagPredictor, 1, 1, TypeShort, FieldPredictor, ro, false, "Predictor"},
	{TagWhitePoint, 2, 2, TypeRational, FieldCustom, rw, false, "WhitePoint"},
	{TagPrimaryChromaticities, 6, 6, TypeRational, FieldCustom, rw, false, "PrimaryChromaticities"},
	{TagColorMap, CountVariable, CountVariable, TypeShort, FieldColorMap, rw, false, "ColorMap"},
	{TagHalftoneHints, 2, 2, TypeShort, FieldCustom, rw, false, "HalftoneHints"},
	{TagTileWidth, 1, 1, TypeLong, FieldTileDimensions, ro, false, "TileWidth"},
	{TagTileWidth, 1, 1, TypeShort, FieldTileDimensions, ro, false, "TileWidth"},
	{TagTileLength, 1, 1, TypeLong, FieldTileDimensions, ro, false, "TileLength"},
	{TagTileLength, 1, 1, TypeShort, FieldTileDimensions, ro, false, "TileLength"},
	{TagTileOffsets, CountVariable, CountVariable, TypeLong, FieldStripOffsets, ro, false, "TileOffsets"},
	{TagTileByteCounts, CountVariable, CountVariable, TypeLong, FieldStripByteCounts, ro, false, "TileByteCounts"},
	{TagTileByteCounts, CountVariable, CountVariable, TypeShort, FieldStripByteCounts, ro, false, "TileByteCounts"},
	{TagBadFaxLines, 1, 1, TypeLong, FieldCustom, rw, false, "BadFaxLines"},
	{TagBadFaxLines, 1, 1, TypeShort, FieldCustom, rw, false, "BadFaxLines"},
	{TagCleanFaxData, 1, 1, TypeShort, FieldCustom, rw, false, "CleanFaxData"},
	{TagConsecutiveBadFaxLines, 1, 1, TypeLong, FieldCustom, rw, false, "ConsecutiveBadFaxLines"},
	{TagConsecutiveBadFaxLines, 1, 1, TypeShort, FieldCustom, rw, false, "ConsecutiveBadFaxLines"},
	{TagSubIFD, CountVariable, CountVariable, TypeIFD, FieldSubIFD, rw, true, "SubIFD"},
	{TagSubIFD, CountVariable, CountVariable, TypeLong, FieldSubIFD, rw, true, "SubIFD"},
	{TagInkSet, 1, 1, TypeShort, FieldCustom, ro, false, "InkSet"},
	{TagInkNames, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "InkNames"},
	{TagNumberOfInks, 1, 1, TypeShort, FieldCustom, rw, false, "NumberOfInks"},
	{TagDotRange, CountVariable, CountVariable, TypeShort, FieldCustom, rw, true, "DotRange"},
	{TagDotRange, CountVariable, CountVariable, TypeByte, FieldCustom, rw, true, "DotRange"},
	{TagTargetPrinter, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "TargetPrinter"},
	{TagExtraSamples, CountVariable, CountVariable, TypeShort, FieldExtraSamples, ro, true, "ExtraSamples"},
	{TagSampleFormat, CountPerSample, 1, TypeShort, FieldSampleFormat, ro, false, "SampleFormat"},
	{TagSMinSampleValue, CountPerSample, 1, TypeDouble, FieldSMinSampleValue, rw, false, "SMinSampleValue"},
	{TagSMaxSampleValue, CountPerSample, 1, TypeDouble, FieldSMaxSampleValue, rw, false, "SMaxSampleValue"},
	{TagClipPath, CountVariable, CountVariable, TypeByte, FieldCustom, rw, true, "ClipPath"},
	{TagXClipPathUnits, 1, 1, TypeLong, FieldCustom, rw, false, "XClipPathUnits"},
	{TagYClipPathUnits, 1, 1, TypeLong, FieldCustom, rw, false, "YClipPathUnits"},
	{TagJPEGTables, CountVariable2, CountVariable2, TypeUndefined, FieldCustom, rw, true, "JPEGTables"},
	{TagYCbCrCoefficients, 3, 3, TypeRational, FieldCustom, ro, false, "YCbCrCoefficients"},
	{TagYCbCrSubsampling, 2, 2, TypeShort, FieldYCbCrSubsampling, ro, false, "YCbCrSubsampling"},
	{TagYCbCrPositioning, 1, 1, TypeShort, FieldYCbCrPositioning, ro, false, "YCbCrPositioning"},
	{TagReferenceBlackWhite, 6, 6, TypeRational, FieldCustom, rw, false, "ReferenceBlackWhite"},
	{TagXMLPacket, CountVariable2, CountVariable2, TypeByte, FieldCustom, rw, true, "XMLPacket"},
	{TagImageDepth, 1, 1, TypeLong, FieldImageDepth, ro, false, "ImageDepth"},
	{TagImageDepth, 1, 1, TypeShort, FieldImageDepth, ro, false, "ImageDepth"},
	{TagTileDepth, 1, 1, TypeLong, FieldTileDepth, ro, false, "TileDepth"},
	{TagTileDepth, 1, 1, TypeShort, FieldTileDepth, ro, false, "TileDepth"},
	{TagCopyright, CountVariable, CountVariable, TypeASCII, FieldCustom, rw, false, "Copyright"},
	{TagRichTIFFIPTC, CountVariable2, CountVariable2, TypeUndefined, FieldCustom, rw, true, "RichTIFFIPTC"},
	{TagRichTIFFIPTC, CountVariable2, CountVariable2, TypeLong, FieldCustom, rw, true, "RichTIFFIPTC"},
	{TagPhotoshop, CountVariable2, CountVariable2, TypeByte, FieldCustom, rw, true, "Photoshop"},
	{TagExifIFD, 1, 1, TypeIFD, FieldCustom, rw, false, "EXIFIFDOffset"},
	{TagExifIFD, 1, 1, TypeLong, FieldCustom, rw, false, "EXIFIFDOffset"},
	{TagICCProfile, CountVariable2, CountVariable2, TypeUndefined, FieldCustom, rw, true, "ICC Profile"},
	{TagGPSIFD, 1, 1, TypeIFD, FieldCustom, rw, false, "GPSIFDOffset"},
	{TagGPSIFD, 1, 1, TypeLong, FieldCustom, rw, false, "GPSIFDOffset"},
	{TagImageSourceData, CountVariable2, CountVariable2, TypeUndefined, FieldCustom, rw, true, "Adobe Photoshop Document Data Block"},
}

// Codec pseudo-fields. Each codec exposes its own subset while bound.
var (
	faxFields = []FieldInfo{
		{TagFaxMode, 1, 1, TypeLong, FieldPseudo, rw, false, "FaxMode"},
	}
	jpegFields = []FieldInfo{
		{TagJPEGQuality, 1, 1, TypeLong, FieldPseudo, rw, false, "JPEGQuality"},
		{TagJPEGColorMode, 1, 1, TypeLong, FieldPseudo, rw, false, "JPEGColorMode"},
	}
	zipFields = []FieldInfo{
		{TagZipQuality, 1, 1, TypeSLong, FieldPseudo, rw, false, "ZipQuality"},
	}
	zstdFields = []FieldInfo{
		{TagZSTDLevel, 1, 1, TypeSLong, FieldPseudo, rw, false, "ZSTDLevel"},
	}
)

var pseudoFieldInfo = concatFields(faxFields, jpegFields, zipFields, zstdFields)

func concatFields(lists ...[]FieldInfo) []FieldInfo {
	var out []FieldInfo
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

var builtinIndex = func() map[Tag]*FieldInfo {
	m := make(map[Tag]*FieldInfo, len(builtinFields))
	for i := range builtinFields {
		if _, ok := m[builtinFields[i].Tag]; !ok {
			m[builtinFields[i].Tag] = &builtinFields[i]
		}
	}
	return m
}()

func builtinByTag(t Tag) *FieldInfo {
	return builtinIndex[t]
}
