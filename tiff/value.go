package tiff

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// Kind is the variant held by a Value.
type Kind uint8

const (
	KindInvalid  Kind = iota
	KindUnsigned      // BYTE, SHORT, LONG, IFD
	KindSigned        // SBYTE, SSHORT, SLONG
	KindFloat         // FLOAT
	KindDouble        // DOUBLE, RATIONAL, SRATIONAL
	KindBytes         // BYTE and UNDEFINED blobs
	KindString        // ASCII
)

var kindNames = [...]string{"invalid", "unsigned", "signed", "float", "double", "bytes", "string"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a tag value: a scalar, a homogeneous array, a byte blob or a
// string. The zero Value is invalid.
//
// Accessors never convert between the integer, floating point and
// string families. A request for the wrong family fails with
// ErrTypeMismatch.
type Value struct {
	kind  Kind
	array bool
	u     []uint64
	i     []int64
	f     []float64
	b     []byte
	s     string
}

// Uint returns an unsigned scalar.
func Uint(v uint64) Value { return Value{kind: KindUnsigned, u: []uint64{v}} }

// Int returns a signed scalar.
func Int(v int64) Value { return Value{kind: KindSigned, i: []int64{v}} }

// Float returns a single precision scalar.
func Float(v float32) Value { return Value{kind: KindFloat, f: []float64{float64(v)}} }

// Double returns a double precision scalar. RATIONAL and SRATIONAL fields
// take Double values.
func Double(v float64) Value { return Value{kind: KindDouble, f: []float64{v}} }

// Bytes returns a byte blob. The slice is copied.
func Bytes(b []byte) Value { return Value{kind: KindBytes, array: true, b: slices.Clone(b)} }

// String returns an ASCII value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Uint16s returns an unsigned array.
func Uint16s(v ...uint16) Value {
	u := make([]uint64, len(v))
	for i, x := range v {
		u[i] = uint64(x)
	}
	return Value{kind: KindUnsigned, array: true, u: u}
}

// Uint32s returns an unsigned array.
func Uint32s(v ...uint32) Value {
	u := make([]uint64, len(v))
	for i, x := range v {
		u[i] = uint64(x)
	}
	return Value{kind: KindUnsigned, array: true, u: u}
}

// Uint64s returns an unsigned array.
func Uint64s(v ...uint64) Value {
	return Value{kind: KindUnsigned, array: true, u: slices.Clone(v)}
}

// Ints returns a signed array.
func Ints(v ...int64) Value {
	return Value{kind: KindSigned, array: true, i: slices.Clone(v)}
}

// Floats returns a single precision array.
func Floats(v ...float32) Value {
	f := make([]float64, len(v))
	for i, x := range v {
		f[i] = float64(x)
	}
	return Value{kind: KindFloat, array: true, f: f}
}

// Doubles returns a double precision array.
func Doubles(v ...float64) Value {
	return Value{kind: KindDouble, array: true, f: slices.Clone(v)}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds anything.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// IsArray reports whether v was built as an array. A one-element array is
// still an array.
func (v Value) IsArray() bool { return v.array }

// Len returns the number of elements. Strings count their bytes plus the
// terminating NUL, matching the on-disk ASCII count.
func (v Value) Len() int {
	switch v.kind {
	case KindUnsigned:
		return len(v.u)
	case KindSigned:
		return len(v.i)
	case KindFloat, KindDouble:
		return len(v.f)
	case KindBytes:
		return len(v.b)
	case KindString:
		return len(v.s) + 1
	}
	return 0
}

func (v Value) mismatch(want string) error {
	return fmt.Errorf("%w: have %s, want %s", ErrTypeMismatch, v.kind, want)
}

// Uint returns the first unsigned element. BYTE blobs are accepted.
func (v Value) Uint() (uint64, error) {
	switch v.kind {
	case KindUnsigned:
		if len(v.u) > 0 {
			return v.u[0], nil
		}
	case KindBytes:
		if len(v.b) > 0 {
			return uint64(v.b[0]), nil
		}
	default:
		return 0, v.mismatch("unsigned")
	}
	return 0, fmt.Errorf("%w: empty value", ErrCount)
}

// Uint16 is Uint with a range check.
func (v Value) Uint16() (uint16, error) {
	u, err := v.Uint()
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d does not fit in 16 bits", ErrBadValue, u)
	}
	return uint16(u), nil
}

// Uint32 is Uint with a range check.
func (v Value) Uint32() (uint32, error) {
	u, err := v.Uint()
	if err != nil {
		return 0, err
	}
	if u > math.MaxUint32 {
		return 0, fmt.Errorf("%w: %d does not fit in 32 bits", ErrBadValue, u)
	}
	return uint32(u), nil
}

// Int returns the first signed element.
func (v Value) Int() (int64, error) {
	if v.kind != KindSigned {
		return 0, v.mismatch("signed")
	}
	if len(v.i) == 0 {
		return 0, fmt.Errorf("%w: empty value", ErrCount)
	}
	return v.i[0], nil
}

// Float64 returns the first FLOAT or DOUBLE element.
func (v Value) Float64() (float64, error) {
	if v.kind != KindFloat && v.kind != KindDouble {
		return 0, v.mismatch("float")
	}
	if len(v.f) == 0 {
		return 0, fmt.Errorf("%w: empty value", ErrCount)
	}
	return v.f[0], nil
}

// Uint64s returns every unsigned element. BYTE blobs are accepted.
func (v Value) Uint64s() ([]uint64, error) {
	switch v.kind {
	case KindUnsigned:
		return slices.Clone(v.u), nil
	case KindBytes:
		out := make([]uint64, len(v.b))
		for i, b := range v.b {
			out[i] = uint64(b)
		}
		return out, nil
	}
	return nil, v.mismatch("unsigned")
}

// Uint32s returns every unsigned element, range checked.
func (v Value) Uint32s() ([]uint32, error) {
	u, err := v.Uint64s()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(u))
	for i, x := range u {
		if x > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %d does not fit in 32 bits", ErrBadValue, x)
		}
		out[i] = uint32(x)
	}
	return out, nil
}

// Uint16s returns every unsigned element, range checked.
func (v Value) Uint16s() ([]uint16, error) {
	u, err := v.Uint64s()
	if err != nil {
		return nil, err
	}
	out := make([]uint16, len(u))
	for i, x := range u {
		if x > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %d does not fit in 16 bits", ErrBadValue, x)
		}
		out[i] = uint16(x)
	}
	return out, nil
}

// Int64s returns every signed element.
func (v Value) Int64s() ([]int64, error) {
	if v.kind != KindSigned {
		return nil, v.mismatch("signed")
	}
	return slices.Clone(v.i), nil
}

// Float64s returns every FLOAT or DOUBLE element.
func (v Value) Float64s() ([]float64, error) {
	if v.kind != KindFloat && v.kind != KindDouble {
		return nil, v.mismatch("float")
	}
	return slices.Clone(v.f), nil
}

// Float32s returns every FLOAT or DOUBLE element narrowed to float32.
func (v Value) Float32s() ([]float32, error) {
	if v.kind != KindFloat && v.kind != KindDouble {
		return nil, v.mismatch("float")
	}
	out := make([]float32, len(v.f))
	for i, x := range v.f {
		out[i] = float32(x)
	}
	return out, nil
}

// Bytes returns a copy of a blob.
func (v Value) Bytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, v.mismatch("bytes")
	}
	return slices.Clone(v.b), nil
}

// Text returns an ASCII value.
func (v Value) Text() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch("string")
	}
	return v.s, nil
}

// Equal reports whether v and o hold the same kind and elements.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUnsigned:
		return slices.Equal(v.u, o.u)
	case KindSigned:
		return slices.Equal(v.i, o.i)
	case KindFloat, KindDouble:
		return slices.Equal(v.f, o.f)
	case KindBytes:
		return slices.Equal(v.b, o.b)
	case KindString:
		return v.s == o.s
	}
	return true
}

func (v Value) String() string {
	var sb strings.Builder
	join := func(n int, elem func(int) string) {
		if n > 1 || v.array {
			sb.WriteByte('[')
		}
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteByte(' ')
			}
			if i == 16 && n > 20 {
				fmt.Fprintf(&sb, "... (%d more)", n-i)
				break
			}
			sb.WriteString(elem(i))
		}
		if n > 1 || v.array {
			sb.WriteByte(']')
		}
	}
	switch v.kind {
	case KindUnsigned:
		join(len(v.u), func(i int) string { return fmt.Sprint(v.u[i]) })
	case KindSigned:
		join(len(v.i), func(i int) string { return fmt.Sprint(v.i[i]) })
	case KindFloat, KindDouble:
		join(len(v.f), func(i int) string { return fmt.Sprint(v.f[i]) })
	case KindBytes:
		fmt.Fprintf(&sb, "<%d bytes>", len(v.b))
	case KindString:
		fmt.Fprintf(&sb, "%q", v.s)
	default:
		sb.WriteString("<invalid>")
	}
	return sb.String()
}

// elems returns the element count used by cardinality checks. Strings
// are one element.
func (v Value) elems() int {
	if v.kind == KindString {
		return 1
	}
	return v.Len()
}

// kindFor returns the Value kind that stores data of type t.
func kindFor(t DataType) Kind {
	switch t {
	case TypeByte, TypeUndefined:
		return KindBytes
	case TypeShort, TypeLong, TypeIFD:
		return KindUnsigned
	case TypeSByte, TypeSShort, TypeSLong:
		return KindSigned
	case TypeFloat:
		return KindFloat
	case TypeRational, TypeSRational, TypeDouble:
		return KindDouble
	case TypeASCII:
		return KindString
	}
	return KindInvalid
}

// typeFor picks the on-disk type for a value stored under a field that
// accepts any type.
func typeFor(v Value) DataType {
	switch v.kind {
	case KindUnsigned:
		for _, x := range v.u {
			if x > math.MaxUint16 {
				return TypeLong
			}
		}
		return TypeShort
	case KindSigned:
		return TypeSLong
	case KindFloat:
		return TypeFloat
	case KindDouble:
		return TypeDouble
	case KindBytes:
		return TypeUndefined
	case KindString:
		return TypeASCII
	}
	return TypeAny
}

// coerce converts v into the canonical representation for type t. Only
// conversions within one family are made: unsigned integers to BYTE
// blobs, FLOAT to DOUBLE and back. Values out of range for t fail with
// ErrBadValue.
func coerce(t DataType, v Value) (Value, error) {
	if !v.IsValid() {
		return Value{}, fmt.Errorf("%w: invalid value", ErrTypeMismatch)
	}
	want := kindFor(t)
	switch want {
	case KindBytes:
		switch v.kind {
		case KindBytes:
			return v, nil
		case KindUnsigned:
			b := make([]byte, len(v.u))
			for i, x := range v.u {
				if x > math.MaxUint8 {
					return Value{}, fmt.Errorf("%w: %d does not fit in a byte", ErrBadValue, x)
				}
				b[i] = byte(x)
			}
			return Value{kind: KindBytes, array: true, b: b}, nil
		}
	case KindUnsigned:
		var limit uint64 = math.MaxUint32
		if t == TypeShort {
			limit = math.MaxUint16
		}
		switch v.kind {
		case KindUnsigned:
			for _, x := range v.u {
				if x > limit {
					return Value{}, fmt.Errorf("%w: %d out of range for %s", ErrBadValue, x, t)
				}
			}
			return v, nil
		case KindBytes:
			u := make([]uint64, len(v.b))
			for i, x := range v.b {
				u[i] = uint64(x)
			}
			return Value{kind: KindUnsigned, array: true, u: u}, nil
		}
	case KindSigned:
		if v.kind == KindSigned {
			lo, hi := int64(math.MinInt32), int64(math.MaxInt32)
			switch t {
			case TypeSByte:
				lo, hi = math.MinInt8, math.MaxInt8
			case TypeSShort:
				lo, hi = math.MinInt16, math.MaxInt16
			}
			for _, x := range v.i {
				if x < lo || x > hi {
					return Value{}, fmt.Errorf("%w: %d out of range for %s", ErrBadValue, x, t)
				}
			}
			return v, nil
		}
	case KindFloat:
		if v.kind == KindFloat || v.kind == KindDouble {
			f := make([]float64, len(v.f))
			for i, x := range v.f {
				f[i] = float64(float32(x))
			}
			return Value{kind: KindFloat, array: v.array, f: f}, nil
		}
	case KindDouble:
		if v.kind == KindFloat || v.kind == KindDouble {
			if t == TypeRational {
				for _, x := range v.f {
					if x < 0 || math.IsNaN(x) {
						return Value{}, fmt.Errorf("%w: %v is not a valid RATIONAL", ErrBadValue, x)
					}
				}
			}
			return Value{kind: KindDouble, array: v.array, f: v.f}, nil
		}
	case KindString:
		if v.kind == KindString {
			return v, nil
		}
	default:
		return Value{}, fmt.Errorf("%w: no storage for type %s", ErrTypeMismatch, t)
	}
	return Value{}, fmt.Errorf("%w: %s value for %s field", ErrTypeMismatch, v.kind, t)
}
