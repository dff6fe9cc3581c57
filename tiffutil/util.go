// Package tiffutil provides TIFF-specific utility functions.
//
// This package offers higher-level operations for working with TIFF files,
// including file summaries, validation, comparison and recompression.
//
// Example usage:
//
//	info, _ := tiffutil.GetFileInfo("scan.tif")
//	for _, d := range info.Directories {
//		fmt.Printf("%dx%d %s\n", d.Width, d.Height, d.Compression)
//	}
package tiffutil

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mrjoshuak/go-tiff/tiff"
)

// ===========================================
// File Information
// ===========================================

// DirectoryInfo summarizes one image of a TIFF file.
type DirectoryInfo struct {
	Index           int
	Offset          uint64
	Width           uint32
	Height          uint32
	BitsPerSample   uint16
	SamplesPerPixel uint16
	SampleFormat    uint16
	Photometric     string
	Compression     string
	PlanarSeparate  bool
	IsTiled         bool
	TileWidth       uint32
	TileHeight      uint32
	RowsPerStrip    uint32
	Segments        uint32 // strips or tiles
	Orientation     uint16
	HasAlpha        bool
	SubIFDs         int
}

// FileInfo provides a summary of a TIFF file.
type FileInfo struct {
	Path        string
	FileSize    int64
	BigEndian   bool
	Directories []DirectoryInfo
}

func quietOptions() *tiff.Options {
	o := tiff.DefaultOptions()
	o.Handler = tiff.DiscardHandler
	return &o
}

// GetFileInfo returns summary information about every directory of a
// TIFF file.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := tiff.OpenFile(path, quietOptions())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dirs, err := Describe(f)
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		Path:        path,
		FileSize:    stat.Size(),
		BigEndian:   f.IsBigEndian(),
		Directories: dirs,
	}, nil
}

// Describe walks the main directory chain of f from the first directory
// and summarizes each image. f is left on the last directory.
func Describe(f *tiff.File) ([]DirectoryInfo, error) {
	if err := f.SetDirectory(0); err != nil {
		return nil, err
	}
	var dirs []DirectoryInfo
	for {
		dirs = append(dirs, describe(f))
		if err := f.ReadDirectory(); err == io.EOF {
			return dirs, nil
		} else if err != nil {
			return dirs, err
		}
	}
}

func describe(f *tiff.File) DirectoryInfo {
	d := f.Directory()
	info := DirectoryInfo{
		Index:           f.CurrentDirectory(),
		Offset:          f.CurrentDirOffset(),
		Width:           d.Width(),
		Height:          d.Length(),
		BitsPerSample:   d.BitsPerSample(),
		SamplesPerPixel: d.SamplesPerPixel(),
		SampleFormat:    d.SampleFormat(),
		Compression:     tiff.CompressionName(d.Compression()),
		PlanarSeparate:  d.PlanarConfig() == tiff.PlanarSeparate,
		IsTiled:         f.IsTiled(),
		RowsPerStrip:    d.RowsPerStrip(),
		Orientation:     d.Orientation(),
	}
	if p, ok := d.Photometric(); ok {
		info.Photometric = tiff.PhotometricName(p)
	}
	for _, e := range d.ExtraSamples() {
		if e == tiff.ExtraSampleAssocAlpha || e == tiff.ExtraSampleUnassAlpha {
			info.HasAlpha = true
		}
	}
	if info.IsTiled {
		info.TileWidth, info.TileHeight, _ = d.TileSize()
		info.Segments = f.NumberOfTiles()
	} else {
		info.Segments = f.NumberOfStrips()
	}
	if v, err := f.GetField(tiff.TagSubIFD); err == nil {
		info.SubIFDs = v.Len()
	}
	return info
}

// ===========================================
// Validation
// ===========================================

// ValidationResult contains the results of file validation.
type ValidationResult struct {
	Valid    bool
	Warnings []string
	Errors   []string
}

func (r *ValidationResult) addError(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ValidateFile opens a TIFF file, walks its directories and decodes every
// strip or tile. Warnings raised while parsing are collected.
func ValidateFile(path string) (*ValidationResult, error) {
	result := &ValidationResult{Valid: true}

	stat, err := os.Stat(path)
	if err != nil {
		result.addError("cannot access file: %v", err)
		return result, nil
	}
	if stat.Size() < 8 {
		result.addError("file too small to be valid TIFF")
		return result, nil
	}

	opts := tiff.DefaultOptions()
	opts.Handler = tiff.HandlerFuncs{
		WarningFunc: func(module, msg string) {
			result.Warnings = append(result.Warnings, module+": "+msg)
		},
	}
	f, err := tiff.OpenFile(path, &opts)
	if err != nil {
		result.addError("cannot open file: %v", err)
		return result, nil
	}
	defer f.Close()

	for n := 0; ; n++ {
		validateDirectory(f, n, result)
		if err := f.ReadDirectory(); err == io.EOF {
			break
		} else if err != nil {
			result.addError("directory %d: %v", n+1, err)
			if errors.Is(err, tiff.ErrDirectoryLoop) {
				break
			}
			// A directory that fails to parse is skipped.
			if f.LastDirectory() {
				break
			}
		}
	}
	return result, nil
}

func validateDirectory(f *tiff.File, n int, result *ValidationResult) {
	d := f.Directory()
	if d.Width() == 0 || d.Length() == 0 {
		result.addError("directory %d: image has zero dimensions", n)
		return
	}
	if d.Width() > 1<<16 || d.Length() > 1<<16 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("directory %d: very large image dimensions", n))
	}
	if ok, reason := tiff.RGBAImageOK(f); !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("directory %d: no RGBA conversion: %s", n, reason))
	}

	var (
		count uint32
		size  int
		read  func(uint32, []byte) (int, error)
		noun  = "strip"
	)
	if f.IsTiled() {
		count, size, read, noun = f.NumberOfTiles(), f.TileSize(), f.ReadEncodedTile, "tile"
	} else {
		count, size, read = f.NumberOfStrips(), f.StripSize(), f.ReadEncodedStrip
	}
	buf := make([]byte, size)
	for i := uint32(0); i < count; i++ {
		if _, err := read(i, buf); err != nil {
			result.addError("directory %d: %s %d: %v", n, noun, i, err)
		}
	}
}

// ===========================================
// Comparison
// ===========================================

// CompareOptions configures file comparison behavior.
type CompareOptions struct {
	Tolerance      uint8 // Maximum allowed difference per 8-bit channel
	IgnoreMetadata bool  // If true, only compare pixel data
}

// CompareFiles checks whether the first images of two TIFF files render
// to the same RGBA pixels. It returns true if they match within
// tolerance, along with any differences found.
func CompareFiles(path1, path2 string, opts CompareOptions) (bool, []string, error) {
	var diffs []string

	f1, err := tiff.OpenFile(path1, quietOptions())
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path1, err)
	}
	defer f1.Close()

	f2, err := tiff.OpenFile(path2, quietOptions())
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path2, err)
	}
	defer f2.Close()

	d1, d2 := f1.Directory(), f2.Directory()
	if d1.Width() != d2.Width() || d1.Length() != d2.Length() {
		diffs = append(diffs, fmt.Sprintf("dimensions differ: %dx%d vs %dx%d",
			d1.Width(), d1.Length(), d2.Width(), d2.Length()))
		return false, diffs, nil
	}

	if !opts.IgnoreMetadata {
		if d1.Compression() != d2.Compression() {
			diffs = append(diffs, fmt.Sprintf("compression differs: %s vs %s",
				tiff.CompressionName(d1.Compression()), tiff.CompressionName(d2.Compression())))
		}
		if d1.BitsPerSample() != d2.BitsPerSample() || d1.SamplesPerPixel() != d2.SamplesPerPixel() {
			diffs = append(diffs, fmt.Sprintf("sample layout differs: %dx%d bits vs %dx%d bits",
				d1.SamplesPerPixel(), d1.BitsPerSample(), d2.SamplesPerPixel(), d2.BitsPerSample()))
		}
		p1, _ := d1.Photometric()
		p2, _ := d2.Photometric()
		if p1 != p2 {
			diffs = append(diffs, fmt.Sprintf("photometric differs: %s vs %s",
				tiff.PhotometricName(p1), tiff.PhotometricName(p2)))
		}
	}

	w, h := d1.Width(), d1.Length()
	r1, err := raster(f1, w, h)
	if err != nil {
		return false, nil, fmt.Errorf("error reading %s: %w", path1, err)
	}
	r2, err := raster(f2, w, h)
	if err != nil {
		return false, nil, fmt.Errorf("error reading %s: %w", path2, err)
	}

	diffCount := 0
	maxDiff := 0
	for i := range r1 {
		if d := pixelDiff(r1[i], r2[i]); d > int(opts.Tolerance) {
			diffCount++
			maxDiff = max(maxDiff, d)
		}
	}
	if diffCount > 0 {
		diffs = append(diffs, fmt.Sprintf("%d pixels differ (max diff: %d)", diffCount, maxDiff))
	}

	return len(diffs) == 0, diffs, nil
}

func raster(f *tiff.File, w, h uint32) ([]uint32, error) {
	r := make([]uint32, int(w)*int(h))
	return r, f.ReadRGBAImageOriented(w, h, r, tiff.OrientationTopLeft, true)
}

// pixelDiff returns the largest channel difference of two packed pixels.
func pixelDiff(a, b uint32) int {
	d := 0
	for shift := 0; shift < 32; shift += 8 {
		x := int(a>>shift&0xff) - int(b>>shift&0xff)
		if x < 0 {
			x = -x
		}
		d = max(d, x)
	}
	return d
}

// ===========================================
// Conversion Utilities
// ===========================================

// structural lists the tags that describe where and how the data of a
// directory is stored rather than what it is.
var structural = map[tiff.Tag]bool{
	tiff.TagStripOffsets:    true,
	tiff.TagStripByteCounts: true,
	tiff.TagTileOffsets:     true,
	tiff.TagTileByteCounts:  true,
	tiff.TagCompression:     true,
	tiff.TagPredictor:       true,
	tiff.TagJPEGTables:      true,
	tiff.TagSubIFD:          true,
}

// CopyTags copies every field of the current directory of src to the
// current directory of dst, except those tied to the stored data.
func CopyTags(src, dst *tiff.File) error {
	for _, tag := range src.Tags() {
		if structural[tag] {
			continue
		}
		v, err := src.GetField(tag)
		if err != nil {
			return err
		}
		if err := dst.SetField(tag, v); err != nil {
			return err
		}
	}
	return nil
}

// predictorSchemes are the schemes that honour the Predictor tag.
var predictorSchemes = map[uint16]bool{
	tiff.CompressionLZW:          true,
	tiff.CompressionAdobeDeflate: true,
	tiff.CompressionDeflate:      true,
	tiff.CompressionZSTD:         true,
}

// ConvertCompression rewrites every directory of input to output with the
// strips or tiles recompressed with scheme. The source predictor is kept
// when the new scheme supports it.
func ConvertCompression(input, output string, scheme uint16) error {
	in, err := tiff.OpenFile(input, quietOptions())
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	defer in.Close()

	opts := quietOptions()
	if in.IsBigEndian() {
		opts.ByteOrder = binary.BigEndian
	}
	out, err := tiff.CreateFile(output, opts)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	for {
		if err := convertDirectory(in, out, scheme); err != nil {
			out.Close()
			return err
		}
		if err := in.ReadDirectory(); err == io.EOF {
			break
		} else if err != nil {
			out.Close()
			return err
		}
	}
	return out.Close()
}

func convertDirectory(in, out *tiff.File, scheme uint16) error {
	if err := CopyTags(in, out); err != nil {
		return err
	}
	if err := out.SetField(tiff.TagCompression, tiff.Uint(uint64(scheme))); err != nil {
		return err
	}
	if v, err := in.GetField(tiff.TagPredictor); err == nil && predictorSchemes[scheme] {
		if err := out.SetField(tiff.TagPredictor, v); err != nil {
			return err
		}
	}

	var (
		count uint32
		size  int
		read  func(uint32, []byte) (int, error)
		write func(uint32, []byte) (int, error)
	)
	if in.IsTiled() {
		count, size = in.NumberOfTiles(), in.TileSize()
		read, write = in.ReadEncodedTile, out.WriteEncodedTile
	} else {
		count, size = in.NumberOfStrips(), in.StripSize()
		read, write = in.ReadEncodedStrip, out.WriteEncodedStrip
	}
	buf := make([]byte, size)
	for i := uint32(0); i < count; i++ {
		n, err := read(i, buf)
		if err != nil {
			return err
		}
		if _, err := write(i, buf[:n]); err != nil {
			return err
		}
	}
	return out.WriteDirectory()
}
