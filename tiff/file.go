package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/mrjoshuak/go-tiff/internal/endian"
)

// Mode is the access mode of a File.
type Mode uint8

const (
	ModeRead Mode = iota
	ModeWrite
	ModeAppend
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeWrite:
		return "w"
	case ModeAppend:
		return "a"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Options configures how a File is opened or created.
type Options struct {
	// ByteOrder is the byte order of files created by Create. Nil means
	// little-endian. It is ignored when reading and appending.
	ByteOrder binary.ByteOrder

	// DisableStripChopping keeps large single-strip images as one strip.
	DisableStripChopping bool

	// DisableMmap makes OpenFile read through the file system instead of
	// mapping the file.
	DisableMmap bool

	// Handler receives warnings and errors. Nil means DefaultHandler.
	Handler Handler

	// Extender is called once on every new handle before any directory
	// is read, so application-defined fields can be merged in.
	Extender func(*File)

	// Codecs are registered on the handle after the built-ins, shadowing
	// them for the same scheme.
	Codecs []Codec

	// MaxBufferSize caps the raw strip buffer. 0 means unlimited.
	MaxBufferSize int64
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() Options {
	return Options{ByteOrder: binary.LittleEndian}
}

// ParseMode parses a classic mode string: "r", "w" or "a" followed by
// modifiers. 'l' and 'b' select little or big-endian output, 'C' and 'c'
// enable or disable strip chopping, 'm' disables memory mapping.
func ParseMode(mode string) (Mode, Options, error) {
	opts := DefaultOptions()
	if mode == "" {
		return 0, opts, fmt.Errorf("%w: empty mode", ErrBadValue)
	}
	var m Mode
	switch mode[0] {
	case 'r':
		m = ModeRead
	case 'w':
		m = ModeWrite
	case 'a':
		m = ModeAppend
	default:
		return 0, opts, fmt.Errorf("%w: mode %q", ErrBadValue, mode)
	}
	for _, c := range mode[1:] {
		switch c {
		case 'l':
			opts.ByteOrder = binary.LittleEndian
		case 'b':
			opts.ByteOrder = binary.BigEndian
		case 'B', 'L', 'H', '8', '4', 'M', 'u', 'h':
			// Accepted for compatibility; no effect.
		case 'C':
			opts.DisableStripChopping = false
		case 'c':
			opts.DisableStripChopping = true
		case 'm':
			opts.DisableMmap = true
		default:
			return 0, opts, fmt.Errorf("%w: mode %q: unknown modifier %q", ErrBadValue, mode, c)
		}
	}
	return m, opts, nil
}

// ReadWriteSeekerAt is the stream Append works on. *os.File satisfies it.
type ReadWriteSeekerAt interface {
	io.ReaderAt
	io.WriteSeeker
}

// File is an open TIFF stream. It holds one current directory, one raw
// strip buffer and one bound codec, and must not be used from more than
// one goroutine at a time.
type File struct {
	name   string
	mode   Mode
	r      io.ReaderAt
	size   int64
	w      io.WriteSeeker
	closer io.Closer
	order  binary.ByteOrder
	opts   Options

	handler Handler
	fields  *FieldRegistry
	codecs  *CodecRegistry

	codec      Codec
	coderReady bool

	dir        *Directory
	curdir     int
	diroff     uint64
	nextdiroff uint64
	guard      *chainGuard

	dirty       bool
	beenWriting bool
	eof         int64
	linkOff     int64 // link field the next new directory is stored in
	dirLinkOff  int64 // link field that points at the current directory
	ndirs       int

	raw  rawBuffer
	scan scanState
}

func newFile(name string, mode Mode, opts *Options) *File {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}
	if o.ByteOrder == nil {
		o.ByteOrder = binary.LittleEndian
	}
	f := &File{
		name:    name,
		mode:    mode,
		opts:    o,
		handler: o.Handler,
		fields:  NewFieldRegistry(),
		codecs:  NewCodecRegistry(),
		dir:     newDirectory(),
		guard:   newChainGuard(),
		curdir:  -1,
		raw:     rawBuffer{limit: o.MaxBufferSize},
	}
	if f.handler == nil {
		f.handler = DefaultHandler()
	}
	for _, c := range o.Codecs {
		f.codecs.Register(c)
	}
	if o.Extender != nil {
		o.Extender(f)
	}
	return f
}

// Open reads the header and first directory of the TIFF stream in r.
func Open(r io.ReaderAt, size int64, opts *Options) (*File, error) {
	f := newFile("", ModeRead, opts)
	f.r, f.size = r, size
	if err := f.readHeader(); err != nil {
		return nil, f.fail("Open", err)
	}
	if f.nextdiroff == 0 {
		return nil, f.fail("Open", fmt.Errorf("%w: file has no directories", ErrNoDirectory))
	}
	if err := f.ReadDirectory(); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFile opens the named file for reading. Unless DisableMmap is set,
// the file is memory mapped. The File must be closed.
func OpenFile(path string, opts *Options) (*File, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	var (
		r      io.ReaderAt
		size   int64
		closer io.Closer
	)
	if !o.DisableMmap {
		m, err := mmap.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		r, size, closer = m, int64(m.Len()), m
	} else {
		fh, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		info, err := fh.Stat()
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
		r, size, closer = fh, info.Size(), fh
	}
	f, err := Open(r, size, opts)
	if err != nil {
		closer.Close()
		return nil, err
	}
	f.name = path
	f.closer = closer
	return f, nil
}

// Create starts a new TIFF stream on w. The first directory is created
// empty and is written by WriteDirectory or Close.
func Create(w io.WriteSeeker, opts *Options) (*File, error) {
	f := newFile("", ModeWrite, opts)
	f.w = w
	f.order = f.opts.ByteOrder
	if err := f.writeHeader(); err != nil {
		return nil, f.fail("Create", err)
	}
	if err := f.CreateDirectory(); err != nil {
		return nil, err
	}
	return f, nil
}

// CreateFile creates or truncates the named file and starts a new TIFF
// stream in it.
func CreateFile(path string, opts *Options) (*File, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	f, err := Create(fh, opts)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.name = path
	f.closer = fh
	return f, nil
}

// Append opens an existing stream of size bytes so new directories are
// added after its last one. An empty stream is treated like Create.
func Append(rw ReadWriteSeekerAt, size int64, opts *Options) (*File, error) {
	if size == 0 {
		f, err := Create(rw, opts)
		if err != nil {
			return nil, err
		}
		f.mode = ModeAppend
		f.r = rw
		return f, nil
	}
	f := newFile("", ModeAppend, opts)
	f.r, f.size, f.w = rw, size, rw
	if err := f.readHeader(); err != nil {
		return nil, f.fail("Append", err)
	}
	last, n, err := f.walkChain(f.nextdiroff)
	if err != nil {
		return nil, f.fail("Append", err)
	}
	if last == 0 {
		f.linkOff = 4
	} else {
		count, err := f.readUint16At(int64(last))
		if err != nil {
			return nil, f.fail("Append", err)
		}
		f.linkOff = int64(last) + 2 + 12*int64(count)
	}
	f.ndirs = n
	f.eof = size
	if err := f.CreateDirectory(); err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFileMode opens path with a classic mode string, as parsed by
// ParseMode. Options given in opts other than those the mode sets are
// kept.
func OpenFileMode(path, mode string, opts *Options) (*File, error) {
	m, mo, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if opts != nil {
		o := *opts
		o.ByteOrder = mo.ByteOrder
		o.DisableStripChopping = o.DisableStripChopping || mo.DisableStripChopping
		o.DisableMmap = o.DisableMmap || mo.DisableMmap
		mo = o
	}
	switch m {
	case ModeRead:
		return OpenFile(path, &mo)
	case ModeWrite:
		return CreateFile(path, &mo)
	}
	fh, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, err
	}
	f, err := Append(fh, info.Size(), &mo)
	if err != nil {
		fh.Close()
		return nil, err
	}
	f.name = path
	f.closer = fh
	return f, nil
}

// Close flushes a modified directory on write handles and releases the
// underlying file, if the handle opened it.
func (f *File) Close() error {
	var errs []error
	if f.mode != ModeRead && (f.dirty || f.scan.pending()) {
		if err := f.WriteDirectory(); err != nil {
			errs = append(errs, err)
		}
	}
	f.releaseCodec()
	f.raw.release()
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			errs = append(errs, err)
		}
		f.closer = nil
	}
	return errors.Join(errs...)
}

func (f *File) writeHeader() error {
	w := endian.NewBufferWriter(8, f.order)
	if f.order == binary.BigEndian {
		w.WriteBytes([]byte("MM"))
	} else {
		w.WriteBytes([]byte("II"))
	}
	w.WriteUint16(42)
	w.WriteUint32(0)
	if err := f.writeAt(0, w.Bytes()); err != nil {
		return err
	}
	f.linkOff = 4
	f.eof = 8
	return nil
}

func (f *File) writeAt(off int64, b []byte) error {
	if _, err := f.w.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek to %d: %v", ErrIO, off, err)
	}
	n, err := f.w.Write(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShortWrite, err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: wrote %d of %d bytes", ErrShortWrite, n, len(b))
	}
	if end := off + int64(n); end > f.eof {
		f.eof = end
	}
	return nil
}

// readAt fills b from off. Anything less than a full read is ErrShortRead.
func (f *File) readAt(b []byte, off int64) error {
	if off < 0 || off+int64(len(b)) > f.size {
		return fmt.Errorf("%w: %d bytes at offset %d past end of file (%d)", ErrShortRead, len(b), off, f.size)
	}
	n, err := f.r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: read %d of %d bytes at offset %d: %v", ErrShortRead, n, len(b), off, err)
}

func (f *File) readUint16At(off int64) (uint16, error) {
	var b [2]byte
	if err := f.readAt(b[:], off); err != nil {
		return 0, err
	}
	return f.order.Uint16(b[:]), nil
}

// FileName returns the path the handle was opened with, if any.
func (f *File) FileName() string { return f.name }

// Mode returns the access mode.
func (f *File) Mode() Mode { return f.mode }

// Options returns the options the handle was opened with.
func (f *File) Options() Options { return f.opts }

// ByteOrder returns the byte order of the file.
func (f *File) ByteOrder() binary.ByteOrder { return f.order }

// IsBigEndian reports whether the file is big-endian.
func (f *File) IsBigEndian() bool { return f.order == binary.BigEndian }

// IsByteSwapped reports whether the file byte order differs from the
// host's.
func (f *File) IsByteSwapped() bool { return !endian.IsNative(f.order) }

// IsMSB2LSB reports whether the current directory stores bits most
// significant first.
func (f *File) IsMSB2LSB() bool { return f.dir.fillOrder == FillOrderMSB2LSB }

// IsTiled reports whether the current directory is tiled.
func (f *File) IsTiled() bool { return f.dir.isSet(FieldTileDimensions) }

// Directory returns the current directory.
func (f *File) Directory() *Directory { return f.dir }

// CurrentDirectory returns the index of the current directory in the
// main chain, or -1 before any has been read.
func (f *File) CurrentDirectory() int { return f.curdir }

// CurrentDirOffset returns the file offset of the current directory, or
// 0 if it has not been written.
func (f *File) CurrentDirOffset() uint64 { return f.diroff }
