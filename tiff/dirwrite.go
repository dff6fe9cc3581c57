package tiff

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/mrjoshuak/go-tiff/internal/endian"
)

// CreateDirectory starts a new, empty directory on a write handle. Any
// unwritten state of the previous directory is discarded.
func (f *File) CreateDirectory() error {
	if f.mode == ModeRead {
		return f.fail("CreateDirectory", &Error{Op: "CreateDirectory", Err: ErrWrongMode})
	}
	f.releaseCodec()
	f.dir.reset()
	f.scan.reset()
	f.diroff, f.nextdiroff, f.dirLinkOff = 0, 0, 0
	f.beenWriting = false
	f.dirty = false
	f.curdir = f.ndirs
	if err := f.bindCodec(CompressionNone, false); err != nil {
		return f.fail("CreateDirectory", err)
	}
	return nil
}

// FreeDirectory clears every field of the current directory, returning
// it to its defaults.
func (f *File) FreeDirectory() {
	f.releaseCodec()
	f.dir.reset()
	f.scan.reset()
	f.beenWriting = false
	if err := f.bindCodec(CompressionNone, true); err != nil {
		f.warnf("FreeDirectory", "%v", err)
	}
}

// WriteDirectory writes the current directory, links it into the chain
// and starts a new one. A directory written before by CheckpointDirectory
// is written again and relinked.
func (f *File) WriteDirectory() error {
	if err := f.writeDirectory(true); err != nil {
		return f.fail("WriteDirectory", err)
	}
	return nil
}

// CheckpointDirectory writes the current directory but keeps it open, so
// that a reader of the partial file sees the data written so far.
func (f *File) CheckpointDirectory() error {
	if err := f.writeDirectory(false); err != nil {
		return f.fail("CheckpointDirectory", err)
	}
	return nil
}

// RewriteDirectory is WriteDirectory under the name used after
// CheckpointDirectory: the current directory is written again at the end
// of the file, the link that referenced the checkpointed copy is pointed
// at it, and a new directory is started. The old copy is left in place,
// unreferenced.
func (f *File) RewriteDirectory() error {
	if err := f.writeDirectory(true); err != nil {
		return f.fail("RewriteDirectory", err)
	}
	return nil
}

// ifdEntry is one directory entry ready to be serialized.
type ifdEntry struct {
	tag   Tag
	typ   DataType
	count uint32
	data  []byte
}

func (f *File) writeDirectory(finish bool) error {
	if f.mode == ModeRead || f.w == nil {
		return fmt.Errorf("%w: file not open for writing", ErrWrongMode)
	}
	if err := f.flushScanlines(); err != nil {
		return err
	}
	d := f.dir
	if !d.isSet(FieldStripOffsets) && d.isSet(FieldImageDimensions) {
		d.setupStrips()
		d.setBit(FieldStripOffsets)
		d.setBit(FieldStripByteCounts)
	}
	entries, err := f.directoryEntries()
	if err != nil {
		return err
	}

	off := f.eof + f.eof&1
	if off > math.MaxUint32 {
		return fmt.Errorf("%w: directory offset %d needs BigTIFF", ErrUnsupported, off)
	}
	block, link := layoutDirectory(entries, uint32(off), f.order)
	if off+int64(len(block)) > math.MaxUint32 {
		return fmt.Errorf("%w: directory ends past 4 GiB", ErrUnsupported)
	}
	if err := f.writeAt(off, block); err != nil {
		return err
	}

	at := f.dirLinkOff
	if f.diroff == 0 {
		at = f.linkOff
	}
	var b [4]byte
	f.order.PutUint32(b[:], uint32(off))
	if err := f.writeAt(at, b[:]); err != nil {
		return err
	}
	f.dirLinkOff = at
	f.linkOff = off + int64(link)
	f.diroff = uint64(off)
	f.dirty = false

	if finish {
		f.ndirs++
		return f.CreateDirectory()
	}
	return nil
}

// layoutDirectory serializes entries as an IFD at off followed by the
// values that do not fit in an entry. It returns the block and the
// position of the next-directory link within it.
func layoutDirectory(entries []ifdEntry, off uint32, order binary.ByteOrder) ([]byte, int) {
	n := len(entries)
	link := 2 + entrySize*n
	w := endian.NewBufferWriter(link+4, order)
	w.WriteUint16(uint16(n))
	var spill []int
	for i, e := range entries {
		w.WriteUint16(uint16(e.tag))
		w.WriteUint16(uint16(e.typ))
		w.WriteUint32(e.count)
		var v [4]byte
		if len(e.data) > 4 {
			spill = append(spill, i)
		} else {
			copy(v[:], e.data)
		}
		w.WriteBytes(v[:])
	}
	w.WriteUint32(0)
	// Out-of-line values follow the table, each starting on a word boundary.
	for _, i := range spill {
		_ = w.PutUint32At(2+entrySize*i+8, off+uint32(w.Len()))
		w.WriteBytes(entries[i].data)
		w.Pad(2)
	}
	return w.Bytes(), link
}

// directoryEntries collects the defined fields of the current directory
// in ascending tag order. Codec pseudo-tags are never written.
func (f *File) directoryEntries() ([]ifdEntry, error) {
	d := f.dir
	tags := d.definedTags(f.fields)
	entries := make([]ifdEntry, 0, len(tags))
	for _, tag := range tags {
		if tag.IsPseudo() {
			continue
		}
		var fi *FieldInfo
		if i := d.findCustom(tag); i >= 0 {
			fi = d.custom[i].info
		} else {
			fi = f.fields.Find(tag, TypeAny)
		}
		if fi == nil {
			continue
		}
		v, ok := d.get(fi)
		if !ok {
			v, ok = d.value(tag)
		}
		if !ok || v.elems() == 0 {
			continue
		}
		if fi.ReadCount == CountPerSample && fi.Bit != FieldCustom && v.elems() == 1 {
			v = repeatValue(v, int(d.samplesPerPixel))
		}
		typ := fi.Type
		if typ == TypeAny {
			typ = typeFor(v)
		}
		data, count, err := encodeValue(typ, v, f.order)
		if err != nil {
			return nil, &Error{Op: "WriteDirectory", Tag: tag, Err: err}
		}
		entries = append(entries, ifdEntry{tag: tag, typ: typ, count: count, data: data})
	}
	slices.SortStableFunc(entries, func(a, b ifdEntry) int { return int(a.tag) - int(b.tag) })
	return entries, nil
}

// repeatValue returns v's single element n times.
func repeatValue(v Value, n int) Value {
	if n <= 1 {
		return v
	}
	switch v.kind {
	case KindUnsigned:
		return Uint64s(slices.Repeat(v.u[:1], n)...)
	case KindSigned:
		return Ints(slices.Repeat(v.i[:1], n)...)
	case KindDouble:
		return Doubles(slices.Repeat(v.f[:1], n)...)
	case KindFloat:
		return Value{kind: KindFloat, array: true, f: slices.Repeat(v.f[:1], n)}
	}
	return v
}

// encodeValue serializes v as count values of type t.
func encodeValue(t DataType, v Value, order binary.ByteOrder) ([]byte, uint32, error) {
	cv, err := coerce(t, v)
	if err != nil {
		return nil, 0, err
	}
	w := endian.NewBufferWriter(8*v.elems(), order)
	switch t {
	case TypeByte, TypeUndefined:
		return cv.b, uint32(len(cv.b)), nil
	case TypeASCII:
		b := append([]byte(cv.s), 0)
		return b, uint32(len(b)), nil
	case TypeShort:
		for _, x := range cv.u {
			w.WriteUint16(uint16(x))
		}
	case TypeLong, TypeIFD:
		for _, x := range cv.u {
			w.WriteUint32(uint32(x))
		}
	case TypeSByte:
		for _, x := range cv.i {
			w.WriteByte(byte(int8(x)))
		}
	case TypeSShort:
		for _, x := range cv.i {
			w.WriteUint16(uint16(int16(x)))
		}
	case TypeSLong:
		for _, x := range cv.i {
			w.WriteUint32(uint32(int32(x)))
		}
	case TypeRational:
		for _, x := range cv.f {
			num, den := toRational(x)
			w.WriteUint32(num)
			w.WriteUint32(den)
		}
	case TypeSRational:
		for _, x := range cv.f {
			num, den := toSRational(x)
			w.WriteUint32(uint32(num))
			w.WriteUint32(uint32(den))
		}
	case TypeFloat:
		for _, x := range cv.f {
			w.WriteFloat32(float32(x))
		}
	case TypeDouble:
		for _, x := range cv.f {
			w.WriteFloat64(x)
		}
	default:
		return nil, 0, fmt.Errorf("%w: cannot write type %s", ErrTypeMismatch, t)
	}
	return w.Bytes(), uint32(cv.elems()), nil
}

// toRational converts v to an unsigned fraction. Integral values are
// stored over 1; others are scaled by powers of 8 until the numerator
// nears 2^28, then reduced, so a value read back encodes identically.
func toRational(v float64) (num, den uint32) {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0, 1
	case v >= math.MaxUint32:
		return math.MaxUint32, 1
	case v == math.Trunc(v):
		return uint32(v), 1
	}
	n, d := scaleFraction(v, 1<<28)
	return uint32(n), uint32(d)
}

// toSRational is toRational for signed fractions.
func toSRational(v float64) (num, den int32) {
	switch {
	case math.IsNaN(v):
		return 0, 1
	case v >= math.MaxInt32:
		return math.MaxInt32, 1
	case v <= math.MinInt32:
		return math.MinInt32, 1
	case v == math.Trunc(v):
		return int32(v), 1
	}
	n, d := scaleFraction(math.Abs(v), 1<<27)
	if v < 0 {
		n = -n
	}
	return int32(n), int32(d)
}

func scaleFraction(v float64, limit float64) (num, den int64) {
	fv, d := v, 1.0
	for fv < limit && d < limit {
		fv *= 8
		d *= 8
	}
	num, den = int64(math.Round(fv)), int64(d)
	for num&1 == 0 && den > 1 {
		num >>= 1
		den >>= 1
	}
	if num == 0 {
		den = 1
	}
	return num, den
}
