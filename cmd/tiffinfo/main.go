// tiffinfo validates TIFF files and describes the images they contain.
//
// Usage:
//
//	tiffinfo [-q|--quiet] [-d|--dump] [-s|--strips] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet   Only output errors. Exit code indicates pass/fail.
//	-d, --dump    Print every tag of every directory.
//	-s, --strips  With --dump, also list strip or tile offsets and sizes.
//	-h, --help    Show this help message.
//	--version     Show version information.
//
// Exit codes:
//
//	0: All files valid
//	1: One or more files invalid
//	2: Error (file not found, etc.)
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrjoshuak/go-tiff/tiff"
	"github.com/mrjoshuak/go-tiff/tiffutil"
)

const version = "1.0.0"

func main() {
	quiet := false
	dump := false
	var flags tiff.PrintFlags
	files := []string{}

	for i := 1; i < len(os.Args); i++ {
		arg := os.Args[i]
		switch arg {
		case "-q", "--quiet":
			quiet = true
		case "-d", "--dump":
			dump = true
		case "-s", "--strips":
			flags |= tiff.PrintStrips
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		case "--version":
			fmt.Printf("tiffinfo version %s\n", version)
			fmt.Println("Part of go-tiff - Pure Go TIFF library")
			fmt.Println("https://github.com/mrjoshuak/go-tiff")
			os.Exit(0)
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(os.Stderr, "Unknown option: %s\n", arg)
				printUsage()
				os.Exit(2)
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Error: No input files specified")
		printUsage()
		os.Exit(2)
	}

	validCount := 0
	errorOccurred := false

	for _, filename := range files {
		if _, err := os.Stat(filename); err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
			}
			errorOccurred = true
			continue
		}
		result, err := tiffutil.ValidateFile(filename)
		if err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
			}
			errorOccurred = true
			continue
		}
		if result.Valid {
			validCount++
		}

		if quiet {
			for _, msg := range result.Errors {
				fmt.Fprintf(os.Stderr, "%s: %s\n", filename, msg)
			}
			continue
		}
		printResult(filename, result)
		if info, err := tiffutil.GetFileInfo(filename); err == nil {
			printInfo(info)
		}
		if dump {
			if err := dumpFile(os.Stdout, filename, flags); err != nil {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
				errorOccurred = true
			}
		}
	}

	if len(files) > 1 && !quiet {
		fmt.Printf("\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	if errorOccurred {
		os.Exit(2)
	}
	if validCount < len(files) {
		os.Exit(1)
	}
	os.Exit(0)
}

func printUsage() {
	fmt.Println(`Usage: tiffinfo [options] <filename> [<filename> ...]

Validate TIFF files and describe the images they contain.

Options:
  -q, --quiet    Only output errors. Exit code indicates pass/fail.
  -d, --dump     Print every tag of every directory.
  -s, --strips   With --dump, also list strip or tile offsets and sizes.
  -h, --help     Show this help message.
  --version      Show version information.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (file not found, permission denied, etc.)

Examples:
  tiffinfo scan.tif                   Validate and summarize a single file
  tiffinfo -q *.tif                   Validate all TIFF files silently
  tiffinfo -d -s scan.tif             Dump every directory with its strips`)
}

func printResult(filename string, result *tiffutil.ValidationResult) {
	if result.Valid {
		fmt.Printf("%s: OK\n", filename)
	} else {
		fmt.Printf("%s: INVALID\n", filename)
		for _, msg := range result.Errors {
			fmt.Printf("  [ERROR] %s\n", msg)
		}
	}
	for _, msg := range result.Warnings {
		fmt.Printf("  [WARNING] %s\n", msg)
	}
}

func printInfo(info *tiffutil.FileInfo) {
	order := "little-endian"
	if info.BigEndian {
		order = "big-endian"
	}
	fmt.Printf("  %d bytes, %s, %d image(s)\n", info.FileSize, order, len(info.Directories))
	for _, d := range info.Directories {
		layout := fmt.Sprintf("%d strips of %d rows", d.Segments, d.RowsPerStrip)
		if d.IsTiled {
			layout = fmt.Sprintf("%d tiles of %dx%d", d.Segments, d.TileWidth, d.TileHeight)
		}
		planar := "contig"
		if d.PlanarSeparate {
			planar = "separate"
		}
		fmt.Printf("  #%d: %dx%d, %d x %d-bit, %s, %s, %s, %s\n",
			d.Index, d.Width, d.Height, d.SamplesPerPixel, d.BitsPerSample,
			d.Photometric, d.Compression, planar, layout)
		if d.SubIFDs > 0 {
			fmt.Printf("      %d SubIFD(s)\n", d.SubIFDs)
		}
	}
}

// dumpFile prints every directory of the main chain.
func dumpFile(w io.Writer, filename string, flags tiff.PrintFlags) error {
	opts := tiff.DefaultOptions()
	opts.Handler = tiff.DiscardHandler
	f, err := tiff.OpenFile(filename, &opts)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		if err := f.PrintDirectoryFlags(w, flags); err != nil {
			return err
		}
		if err := f.ReadDirectory(); err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
	}
}
