// tiff2png converts TIFF images to PNG.
//
// Each input file is written next to itself with a .png extension. With
// -a, every image of a multi-page file is converted and the page number
// is appended to the name (scan-0.png, scan-1.png, ...). Files are
// converted concurrently.
//
// Usage:
//
//	tiff2png [options] infile [infile ...]
//
// Options:
//
//	-v           verbose output
//	-a           convert every page, not just the first
//	-o <dir>     output directory (default: next to the input)
//	-j <n>       number of files converted at once (default: 4)
//	-h, -help    show usage information
//	-version     show version information
package main

import (
	"flag"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/go-tiff/tiff"
)

const version = "1.0.0"

func main() {
	verbose := flag.Bool("v", false, "verbose output")
	allPages := flag.Bool("a", false, "convert every page, not just the first")
	outDir := flag.String("o", "", "output directory (default: next to the input)")
	jobs := flag.Int("j", 4, "number of files converted at once")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tiff2png [options] infile [infile ...]\n\n")
		fmt.Fprintf(os.Stderr, "Convert TIFF images to PNG.\n\n")
		fmt.Fprintf(os.Stderr, "Every image is converted to 8-bit RGBA in display orientation,\n")
		fmt.Fprintf(os.Stderr, "whatever its photometric interpretation or sample layout.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("tiff2png version %s\n", version)
		fmt.Println("Part of go-tiff - https://github.com/mrjoshuak/go-tiff")
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	if *jobs < 1 {
		fmt.Fprintf(os.Stderr, "Error: -j must be at least 1\n")
		os.Exit(1)
	}

	c := &converter{verbose: *verbose, allPages: *allPages, outDir: *outDir}
	var g errgroup.Group
	g.SetLimit(*jobs)
	for _, in := range args {
		g.Go(func() error {
			if err := c.convert(in); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type converter struct {
	verbose  bool
	allPages bool
	outDir   string

	mu sync.Mutex // serializes verbose output
}

func (c *converter) logf(format string, args ...any) {
	if !c.verbose {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Printf(format, args...)
}

// convert writes the first page of inFile, or every page with -a. Each
// call opens its own handle.
func (c *converter) convert(inFile string) error {
	opts := tiff.DefaultOptions()
	opts.Handler = tiff.DiscardHandler
	f, err := tiff.OpenFile(inFile, &opts)
	if err != nil {
		return fmt.Errorf("cannot open input file: %w", err)
	}
	defer f.Close()

	pages := 1
	if c.allPages {
		if pages, err = f.NumberOfDirectories(); err != nil {
			return err
		}
	}
	for page := 0; page < pages; page++ {
		if page > 0 {
			if err := f.ReadDirectory(); err == io.EOF {
				break
			} else if err != nil {
				return fmt.Errorf("page %d: %w", page, err)
			}
		}
		out := c.outputName(inFile, page, pages)
		d := f.Directory()
		photometric, _ := d.Photometric()
		c.logf("Reading %s page %d: %dx%d, %s, %s\n", inFile, page, d.Width(), d.Length(),
			tiff.PhotometricName(photometric), tiff.CompressionName(d.Compression()))
		if err := writePage(f, out); err != nil {
			return fmt.Errorf("page %d: %w", page, err)
		}
		c.logf("Wrote %s\n", out)
	}
	return nil
}

func (c *converter) outputName(inFile string, page, pages int) string {
	base := strings.TrimSuffix(filepath.Base(inFile), filepath.Ext(inFile))
	if pages > 1 {
		base = fmt.Sprintf("%s-%d", base, page)
	}
	dir := c.outDir
	if dir == "" {
		dir = filepath.Dir(inFile)
	}
	return filepath.Join(dir, base+".png")
}

func writePage(f *tiff.File, outFile string) error {
	m, err := f.DecodeImage()
	if err != nil {
		return err
	}
	out, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("cannot create output file: %w", err)
	}
	if err := png.Encode(out, m); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
