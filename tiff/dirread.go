package tiff

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mrjoshuak/go-tiff/internal/endian"
)

const (
	headerSize    = 8
	entrySize     = 12
	classicMagic  = 42
	bigTIFFMagic  = 43
	maxEntryBytes = 1 << 30
	maxDirEntries = 4096
)

// chainGuard records which offset each directory of a chain was read
// from. Reaching a known offset under a different directory number means
// the chain loops.
type chainGuard struct {
	byOff map[uint64]int
	offs  []uint64
}

func newChainGuard() *chainGuard {
	return &chainGuard{byOff: make(map[uint64]int)}
}

// check records that directory n lives at off.
func (g *chainGuard) check(off uint64, n int) error {
	if k, ok := g.byOff[off]; ok {
		if k == n {
			return nil
		}
		return fmt.Errorf("%w: directory %d at offset %d was already read as directory %d", ErrDirectoryLoop, n, off, k)
	}
	if n < len(g.offs) {
		delete(g.byOff, g.offs[n])
		g.offs = g.offs[:n]
	}
	if n != len(g.offs) {
		return fmt.Errorf("%w: directory %d reached before directory %d", ErrBadDirectory, n, len(g.offs))
	}
	g.byOff[off] = n
	g.offs = append(g.offs, off)
	return nil
}

// Count returns the number of directories recorded so far.
func (g *chainGuard) Count() int { return len(g.offs) }

type dirEntry struct {
	tag   Tag
	typ   DataType
	count uint32
	value [4]byte
	done  bool
}

func (f *File) readHeader() error {
	var b [headerSize]byte
	if err := f.readAt(b[:], 0); err != nil {
		return fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	switch string(b[:2]) {
	case "II":
		f.order = binary.LittleEndian
	case "MM":
		f.order = binary.BigEndian
	default:
		return fmt.Errorf("%w: not a TIFF file, bad byte order marker 0x%02x%02x", ErrBadHeader, b[0], b[1])
	}
	switch magic := f.order.Uint16(b[2:]); magic {
	case classicMagic:
	case bigTIFFMagic:
		return fmt.Errorf("%w: BigTIFF", ErrUnsupported)
	default:
		return fmt.Errorf("%w: not a TIFF file, bad version number %d", ErrBadHeader, magic)
	}
	f.nextdiroff = uint64(f.order.Uint32(b[4:]))
	return nil
}

// ReadDirectory advances to the next directory of the chain. It returns
// io.EOF when there is none.
func (f *File) ReadDirectory() error {
	if f.mode != ModeRead {
		return f.fail("ReadDirectory", &Error{Op: "ReadDirectory", Err: ErrWrongMode})
	}
	if f.nextdiroff == 0 {
		return io.EOF
	}
	off := f.nextdiroff
	if err := f.guard.check(off, f.curdir+1); err != nil {
		return f.fail("ReadDirectory", err)
	}
	// A directory that fails to parse still counts, so the next call can
	// skip past it.
	f.curdir++
	if err := f.readDirectoryAt(off); err != nil {
		return f.fail("ReadDirectory", err)
	}
	return nil
}

// SetDirectory makes directory n of the main chain current.
func (f *File) SetDirectory(n int) error {
	if f.mode != ModeRead {
		return f.fail("SetDirectory", &Error{Op: "SetDirectory", Err: ErrWrongMode})
	}
	off, err := f.dirOffset(n)
	if err != nil {
		return f.fail("SetDirectory", err)
	}
	if err := f.readDirectoryAt(off); err != nil {
		return f.fail("SetDirectory", err)
	}
	f.curdir = n
	return nil
}

// SetSubDirectory reads the directory at off, typically taken from a
// SubIFD field. Following ReadDirectory calls walk that directory's own
// chain.
func (f *File) SetSubDirectory(off uint64) error {
	if f.mode != ModeRead {
		return f.fail("SetSubDirectory", &Error{Op: "SetSubDirectory", Err: ErrWrongMode})
	}
	if off == 0 {
		return f.fail("SetSubDirectory", fmt.Errorf("%w: offset 0", ErrNoDirectory))
	}
	g := newChainGuard()
	if err := g.check(off, 0); err != nil {
		return f.fail("SetSubDirectory", err)
	}
	if err := f.readDirectoryAt(off); err != nil {
		return f.fail("SetSubDirectory", err)
	}
	f.guard = g
	f.curdir = 0
	return nil
}

// LastDirectory reports whether the current directory is the last one of
// its chain.
func (f *File) LastDirectory() bool { return f.nextdiroff == 0 }

// NumberOfDirectories counts the directories of the main chain.
func (f *File) NumberOfDirectories() (int, error) {
	if f.mode == ModeWrite {
		return f.ndirs, nil
	}
	first, err := f.firstDirOffset()
	if err != nil {
		return 0, err
	}
	_, n, err := f.walkChain(first)
	if f.mode == ModeAppend {
		n = f.ndirs
	}
	return n, err
}

func (f *File) firstDirOffset() (uint64, error) {
	var b [4]byte
	if err := f.readAt(b[:], 4); err != nil {
		return 0, err
	}
	return uint64(f.order.Uint32(b[:])), nil
}

// nextOffset returns the link stored after the directory at off.
func (f *File) nextOffset(off uint64) (uint64, error) {
	count, err := f.readUint16At(int64(off))
	if err != nil {
		return 0, fmt.Errorf("%w: directory at %d: %v", ErrBadDirectory, off, err)
	}
	var b [4]byte
	if err := f.readAt(b[:], int64(off)+2+int64(count)*entrySize); err != nil {
		return 0, fmt.Errorf("%w: directory at %d: link: %v", ErrBadDirectory, off, err)
	}
	return uint64(f.order.Uint32(b[:])), nil
}

// walkChain follows the chain from first and returns the offset of the
// last directory and the number of directories.
func (f *File) walkChain(first uint64) (last uint64, n int, err error) {
	g := newChainGuard()
	for off := first; off != 0; n++ {
		if err := g.check(off, n); err != nil {
			return last, n, err
		}
		last = off
		if off, err = f.nextOffset(off); err != nil {
			return last, n + 1, err
		}
	}
	return last, n, nil
}

// dirOffset finds the offset of directory n of the main chain.
func (f *File) dirOffset(n int) (uint64, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: directory %d", ErrNoDirectory, n)
	}
	g := newChainGuard()
	off, err := f.firstDirOffset()
	if err != nil {
		return 0, err
	}
	for i := 0; ; i++ {
		if off == 0 {
			return 0, fmt.Errorf("%w: directory %d of %d", ErrNoDirectory, n, i)
		}
		if err := g.check(off, i); err != nil {
			return 0, err
		}
		if i == n {
			f.guard = g
			return off, nil
		}
		if off, err = f.nextOffset(off); err != nil {
			return 0, err
		}
	}
}

// readEntries reads the entry table and link of the directory at off.
func (f *File) readEntries(off uint64) ([]dirEntry, uint64, error) {
	count, err := f.readUint16At(int64(off))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: cannot read directory count at %d: %v", ErrBadDirectory, off, err)
	}
	if count > maxDirEntries {
		f.warnf("ReadDirectory", "directory at %d has %d entries", off, count)
	}
	buf := make([]byte, int(count)*entrySize)
	if err := f.readAt(buf, int64(off)+2); err != nil {
		return nil, 0, fmt.Errorf("%w: cannot read directory entries at %d: %v", ErrBadDirectory, off, err)
	}
	r := endian.NewReader(buf, f.order)
	entries := make([]dirEntry, 0, count)
	for range count {
		var e dirEntry
		t, _ := r.ReadUint16()
		typ, _ := r.ReadUint16()
		c, _ := r.ReadUint32()
		e.tag, e.typ, e.count = Tag(t), DataType(typ), c
		copy(e.value[:], buf[r.Pos():])
		_ = r.Skip(4)
		entries = append(entries, e)
	}
	var link [4]byte
	next := uint64(0)
	if err := f.readAt(link[:], int64(off)+2+int64(count)*entrySize); err != nil {
		f.warnf("ReadDirectory", "cannot read directory link at %d; treating as last directory", off)
	} else {
		next = uint64(f.order.Uint32(link[:]))
	}
	return entries, next, nil
}

// entryValue decodes the value of e.
func (f *File) entryValue(e *dirEntry) (Value, error) {
	size := uint64(e.typ.Size()) * uint64(e.count)
	if size > maxEntryBytes {
		return Value{}, fmt.Errorf("%w: %d bytes", ErrBadValue, size)
	}
	var data []byte
	if size <= 4 {
		data = e.value[:size]
	} else {
		data = make([]byte, size)
		if err := f.readAt(data, int64(f.order.Uint32(e.value[:]))); err != nil {
			return Value{}, err
		}
	}
	return decodeValue(e.typ, e.count, data, f.order)
}

func decodeValue(typ DataType, count uint32, data []byte, order binary.ByteOrder) (Value, error) {
	r := endian.NewReader(data, order)
	n := int(count)
	var v Value
	switch typ {
	case TypeByte, TypeUndefined:
		return Bytes(data), nil
	case TypeASCII:
		for i, c := range data {
			if c == 0 {
				return String(string(data[:i])), nil
			}
		}
		return String(string(data)), errNoNUL
	case TypeShort, TypeLong, TypeIFD:
		u := make([]uint64, n)
		for i := range u {
			if typ == TypeShort {
				x, _ := r.ReadUint16()
				u[i] = uint64(x)
			} else {
				x, _ := r.ReadUint32()
				u[i] = uint64(x)
			}
		}
		v = Uint64s(u...)
	case TypeSByte, TypeSShort, TypeSLong:
		s := make([]int64, n)
		for i := range s {
			switch typ {
			case TypeSByte:
				x, _ := r.ReadByte()
				s[i] = int64(int8(x))
			case TypeSShort:
				x, _ := r.ReadUint16()
				s[i] = int64(int16(x))
			default:
				x, _ := r.ReadUint32()
				s[i] = int64(int32(x))
			}
		}
		v = Ints(s...)
	case TypeRational, TypeSRational:
		d := make([]float64, n)
		for i := range d {
			num, _ := r.ReadUint32()
			den, _ := r.ReadUint32()
			if den == 0 {
				return Value{}, fmt.Errorf("%w: rational with zero denominator", ErrBadValue)
			}
			if typ == TypeRational {
				d[i] = float64(num) / float64(den)
			} else {
				d[i] = float64(int32(num)) / float64(int32(den))
			}
		}
		v = Doubles(d...)
	case TypeFloat:
		fl := make([]float32, n)
		for i := range fl {
			fl[i], _ = r.ReadFloat32()
		}
		v = Floats(fl...)
	case TypeDouble:
		d := make([]float64, n)
		for i := range d {
			d[i], _ = r.ReadFloat64()
		}
		v = Doubles(d...)
	default:
		return Value{}, fmt.Errorf("%w: data type %d", ErrTypeMismatch, uint16(typ))
	}
	if n == 1 {
		v.array = false
	}
	return v, nil
}

var errNoNUL = fmt.Errorf("%w: ASCII value does not end in a NUL byte", ErrBadValue)

// setupTags are applied before the strip layout is computed, in this
// order.
var setupTags = []Tag{
	TagSamplesPerPixel, TagImageWidth, TagImageLength, TagImageDepth,
	TagTileWidth, TagTileLength, TagTileDepth, TagPlanarConfig,
	TagRowsPerStrip, TagBitsPerSample, TagExtraSamples,
}

// readDirectoryAt replaces the current directory with the one at off.
func (f *File) readDirectoryAt(off uint64) error {
	entries, next, err := f.readEntries(off)
	if err != nil {
		return err
	}
	f.dir.reset()
	f.releaseCodec()
	f.scan.reset()
	f.beenWriting = false
	f.diroff, f.nextdiroff = off, next

	// Keep the first of duplicate tags.
	seen := make(map[Tag]bool, len(entries))
	var prev Tag
	warnedOrder := false
	for i := range entries {
		e := &entries[i]
		if e.tag < prev && !warnedOrder {
			f.warnf("ReadDirectory", "invalid TIFF directory at %d; tags are not sorted in ascending order", off)
			warnedOrder = true
		}
		prev = e.tag
		if seen[e.tag] {
			f.warnf("ReadDirectory", "duplicate field %s; tag ignored", e.tag)
			e.done = true
			continue
		}
		seen[e.tag] = true
	}
	find := func(tag Tag) *dirEntry {
		for i := range entries {
			if entries[i].tag == tag && !entries[i].done {
				return &entries[i]
			}
		}
		return nil
	}

	// Compression first so codec pseudo-fields are known.
	scheme := Uint(CompressionNone)
	if e := find(TagCompression); e != nil {
		e.done = true
		if v, err := f.entryValue(e); err != nil {
			f.warnf("ReadDirectory", "Compression: %v; assuming none", err)
		} else {
			scheme = collapsePerSample(v)
		}
	}
	if err := f.setField(TagCompression, scheme, TypeAny, true); err != nil {
		f.warnf("ReadDirectory", "Compression: %v", err)
		f.setField(TagCompression, Uint(CompressionNone), TypeAny, true)
	}

	for _, tag := range setupTags {
		if e := find(tag); e != nil {
			e.done = true
			f.fetchEntry(e)
		}
	}
	d := f.dir
	if !d.isSet(FieldImageDimensions) {
		return fmt.Errorf("%w: ImageLength", ErrMissingRequired)
	}
	if d.isSet(FieldTileDimensions) {
		if d.tileWidth == 0 || d.tileLength == 0 {
			return fmt.Errorf("%w: TileWidth and TileLength", ErrMissingRequired)
		}
	}
	d.setupStrips()
	if d.nstrips == 0 {
		return fmt.Errorf("%w: cannot handle zero number of %s", ErrBadDirectory, f.segmentNoun())
	}
	d.stripOffsets, d.stripByteCounts = nil, nil
	d.clearBit(FieldStripOffsets)
	d.clearBit(FieldStripByteCounts)

	for i := range entries {
		e := &entries[i]
		if e.done {
			continue
		}
		e.done = true
		switch e.tag {
		case TagStripOffsets, TagTileOffsets, TagStripByteCounts, TagTileByteCounts:
			f.fetchStripThing(e)
		default:
			f.fetchEntry(e)
		}
	}

	if !d.isSet(FieldStripOffsets) {
		name := "StripOffsets"
		if d.isSet(FieldTileDimensions) {
			name = "TileOffsets"
		}
		return fmt.Errorf("%w: %s", ErrMissingRequired, name)
	}
	if !d.isSet(FieldPhotometric) {
		p := guessPhotometric(d)
		f.warnf("ReadDirectory", "Photometric tag is missing, assuming %s", PhotometricName(p))
		d.photometric = p
		d.setBit(FieldPhotometric)
	}
	if !d.isSet(FieldStripByteCounts) {
		f.warnf("ReadDirectory", "TIFF directory is missing required %s field, calculating from image length", f.byteCountName())
		f.estimateStripByteCounts(entries)
	} else if f.byteCountLooksBad() {
		f.warnf("ReadDirectory", "bogus %s field, ignoring and calculating from image length", f.byteCountName())
		f.estimateStripByteCounts(entries)
	}
	if !f.opts.DisableStripChopping && !d.isSet(FieldTileDimensions) &&
		d.nstrips == 1 && d.compression == CompressionNone {
		f.chopUpSingleUncompressedStrip()
	}
	f.dirty = false
	return nil
}

func (f *File) segmentNoun() string {
	if f.IsTiled() {
		return "tiles"
	}
	return "strips"
}

func (f *File) byteCountName() string {
	if f.IsTiled() {
		return "TileByteCounts"
	}
	return "StripByteCounts"
}

// collapsePerSample reduces a per-sample array to its first value.
func collapsePerSample(v Value) Value {
	if v.Len() <= 1 || v.kind == KindString {
		return v
	}
	switch v.kind {
	case KindUnsigned:
		return Uint(v.u[0])
	case KindSigned:
		return Int(v.i[0])
	case KindFloat:
		return Float(float32(v.f[0]))
	case KindDouble:
		return Double(v.f[0])
	case KindBytes:
		return Uint(uint64(v.b[0]))
	}
	return v
}

func allEqual(v Value) bool {
	for i := 1; i < v.Len(); i++ {
		switch v.kind {
		case KindUnsigned:
			if v.u[i] != v.u[0] {
				return false
			}
		case KindSigned:
			if v.i[i] != v.i[0] {
				return false
			}
		case KindFloat, KindDouble:
			if v.f[i] != v.f[0] {
				return false
			}
		case KindBytes:
			if v.b[i] != v.b[0] {
				return false
			}
		}
	}
	return true
}

// fetchEntry decodes e and stores it. Problems are warnings; the tag is
// skipped.
func (f *File) fetchEntry(e *dirEntry) {
	fi := f.fields.Find(e.tag, e.typ)
	if fi == nil {
		fi = f.fields.Find(e.tag, TypeAny)
	}
	if !e.typ.Valid() {
		f.warnf("ReadDirectory", "%s: wrong data type %d; tag ignored", e.tag, uint16(e.typ))
		return
	}
	if fi == nil {
		f.warnf("ReadDirectory", "unknown field with tag %d (0x%x) encountered", uint32(e.tag), uint32(e.tag))
		f.fields.CreateAnonymous(e.tag, e.typ)
	}
	v, err := f.entryValue(e)
	if err == errNoNUL {
		f.warnf("ReadDirectory", "ASCII value for tag %q does not end in null byte", e.tag)
	} else if err != nil {
		f.warnf("ReadDirectory", "%s: %v; tag ignored", e.tag, err)
		return
	}
	if fi != nil {
		if fi.ReadCount == CountPerSample && fi.WriteCount == 1 {
			if !allEqual(v) {
				f.warnf("ReadDirectory", "cannot handle different values per sample for %q; using the first", fi.Name)
			}
			v = collapsePerSample(v)
		}
		if fi.Bit == FieldSMinSampleValue || fi.Bit == FieldSMaxSampleValue {
			v = toDouble(v)
		}
	}
	if err := f.setField(e.tag, v, e.typ, true); err != nil {
		f.warnf("ReadDirectory", "%s: %v; tag ignored", e.tag, err)
	}
}

func toDouble(v Value) Value {
	switch v.kind {
	case KindUnsigned:
		return Double(float64(v.u[0]))
	case KindSigned:
		return Double(float64(v.i[0]))
	case KindBytes:
		return Double(float64(v.b[0]))
	}
	return v
}

// fetchStripThing reads a strip or tile offset or byte count array,
// padding or trimming it to the number of strips.
func (f *File) fetchStripThing(e *dirEntry) {
	d := f.dir
	tiled := d.isSet(FieldTileDimensions)
	if tiled != (e.tag == TagTileOffsets || e.tag == TagTileByteCounts) {
		f.warnf("ReadDirectory", "%s in a %s image; tag ignored", e.tag, map[bool]string{true: "tiled", false: "stripped"}[tiled])
		return
	}
	v, err := f.entryValue(e)
	if err != nil {
		f.warnf("ReadDirectory", "%s: %v; tag ignored", e.tag, err)
		return
	}
	u, err := v.Uint64s()
	if err != nil {
		f.warnf("ReadDirectory", "%s: %v; tag ignored", e.tag, err)
		return
	}
	if len(u) != int(d.nstrips) {
		f.warnf("ReadDirectory", "incorrect count %d for field %q (%d expected); tag %s", len(u), e.tag, d.nstrips,
			map[bool]string{true: "trimmed", false: "padded"}[len(u) > int(d.nstrips)])
		fixed := make([]uint64, d.nstrips)
		copy(fixed, u)
		u = fixed
	}
	if e.tag == TagStripOffsets || e.tag == TagTileOffsets {
		d.stripOffsets = u
		d.setBit(FieldStripOffsets)
	} else {
		d.stripByteCounts = u
		d.setBit(FieldStripByteCounts)
	}
	for i := 1; i < len(d.stripOffsets); i++ {
		if d.stripOffsets[i] < d.stripOffsets[i-1] {
			d.stripsSorted = false
			break
		}
	}
}

func guessPhotometric(d *Directory) uint16 {
	color := int(d.samplesPerPixel) - len(d.extraSamples)
	switch {
	case color == 3:
		return PhotometricRGB
	case color == 4 && d.bitsPerSample >= 8:
		return PhotometricSeparated
	case isFaxScheme(d.compression):
		return PhotometricMinIsWhite
	}
	return PhotometricMinIsBlack
}

func isFaxScheme(c uint16) bool {
	switch c {
	case CompressionCCITTRLE, CompressionCCITTFax3, CompressionCCITTFax4, CompressionCCITTRLEW:
		return true
	}
	return false
}

// byteCountLooksBad detects byte counts that cannot be right for a
// single uncompressed strip.
func (f *File) byteCountLooksBad() bool {
	d := f.dir
	if len(d.stripByteCounts) == 0 {
		return true
	}
	if d.stripByteCounts[0] == 0 && d.stripOffsets[0] != 0 {
		return true
	}
	return d.compression == CompressionNone && d.nstrips == 1 &&
		d.stripByteCounts[0] > uint64(f.size)-min(d.stripOffsets[0], uint64(f.size))
}

// estimateStripByteCounts fills in byte counts from the image geometry,
// or for compressed data from the space left in the file.
func (f *File) estimateStripByteCounts(entries []dirEntry) {
	d := f.dir
	d.stripByteCounts = make([]uint64, d.nstrips)
	if d.compression != CompressionNone {
		space := uint64(headerSize + 2 + len(entries)*entrySize + 4)
		for _, e := range entries {
			if n := uint64(e.typ.Size()) * uint64(e.count); n > 4 {
				space += n
			}
		}
		filesize := uint64(f.size)
		if space > filesize {
			space = 0
		} else {
			space = filesize - space
		}
		if d.planarConfig == PlanarSeparate {
			space /= uint64(d.samplesPerPixel)
		}
		for i := range d.stripByteCounts {
			d.stripByteCounts[i] = space
			if off := d.stripOffsets[i]; off+space > filesize {
				if off > filesize {
					d.stripByteCounts[i] = 0
				} else {
					d.stripByteCounts[i] = filesize - off
				}
			}
		}
	} else if f.IsTiled() {
		size := uint64(f.TileSize())
		for i := range d.stripByteCounts {
			d.stripByteCounts[i] = size
		}
	} else {
		rps := d.rowsPerStrip
		if rps > d.length {
			rps = d.length
		}
		for i := range d.stripByteCounts {
			rows := min(rps, d.length-min(d.length, uint32(i%int(d.stripsPerImage))*rps))
			d.stripByteCounts[i] = uint64(f.VStripSize(rows))
		}
	}
	d.setBit(FieldStripByteCounts)
	if !d.isSet(FieldMaxSampleValue) {
		d.maxSampleValue = defaultMaxSample(d.bitsPerSample)
	}
}

// chopUpSingleUncompressedStrip splits one large uncompressed strip into
// strips of about DefaultStripBytes so it can be read piecemeal. Only the
// in-memory offsets change.
func (f *File) chopUpSingleUncompressedStrip() {
	d := f.dir
	bytecount := d.stripByteCounts[0]
	offset := d.stripOffsets[0]
	if bytecount == 0 {
		return
	}
	rowblock := uint32(1)
	if d.photometric == PhotometricYCbCr && !f.IsUpSampled() {
		rowblock = uint32(d.ycbcrSubsampling[1])
	}
	rowblockbytes := uint64(f.VStripSize(rowblock))
	var stripbytes uint64
	var rowsperstrip uint32
	switch {
	case rowblockbytes > DefaultStripBytes:
		stripbytes, rowsperstrip = rowblockbytes, rowblock
	case rowblockbytes > 0:
		perStrip := DefaultStripBytes / rowblockbytes
		rowsperstrip = uint32(perStrip) * rowblock
		stripbytes = perStrip * rowblockbytes
	default:
		return
	}
	if rowsperstrip >= d.rowsPerStrip || rowsperstrip == 0 {
		return
	}
	nstrips := howMany32(d.length, rowsperstrip)
	if nstrips == 0 || nstrips > math.MaxInt32 {
		return
	}
	offsets := make([]uint64, nstrips)
	counts := make([]uint64, nstrips)
	for i := range offsets {
		if stripbytes > bytecount {
			stripbytes = bytecount
		}
		counts[i] = stripbytes
		if stripbytes > 0 {
			offsets[i] = offset
		}
		offset += stripbytes
		bytecount -= stripbytes
	}
	d.nstrips, d.stripsPerImage = nstrips, nstrips
	d.rowsPerStrip = rowsperstrip
	d.setBit(FieldRowsPerStrip)
	d.stripOffsets, d.stripByteCounts = offsets, counts
}
