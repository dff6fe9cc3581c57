package tiff

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package wraps exactly one
// of them, so callers can decide with errors.Is whether to skip a
// directory, a strip, or give up.
var (
	// ErrValidation covers rejected SetField calls and bad caller input.
	ErrValidation = errors.New("tiff: validation error")
	// ErrFormat covers corrupt headers, directories and chains.
	ErrFormat = errors.New("tiff: format error")
	// ErrIO covers short reads and writes on the underlying stream.
	ErrIO = errors.New("tiff: I/O error")
	// ErrUnsupported covers unconfigured codecs and unhandled sample layouts.
	ErrUnsupported = errors.New("tiff: unsupported feature")
)

// Refinements of the categories above.
var (
	ErrUnknownTag    = fmt.Errorf("%w: unknown tag", ErrValidation)
	ErrBadValue      = fmt.Errorf("%w: bad value", ErrValidation)
	ErrCount         = fmt.Errorf("%w: wrong value count", ErrValidation)
	ErrReadOnlyField = fmt.Errorf("%w: field cannot change after writing has started", ErrValidation)
	ErrTypeMismatch  = fmt.Errorf("%w: type mismatch", ErrValidation)
	ErrFieldNotSet   = fmt.Errorf("%w: field not set", ErrValidation)
	ErrWrongMode     = fmt.Errorf("%w: operation not allowed in this file mode", ErrValidation)

	ErrBadHeader       = fmt.Errorf("%w: bad header", ErrFormat)
	ErrDirectoryLoop   = fmt.Errorf("%w: IFD reference loop detected", ErrFormat)
	ErrBadDirectory    = fmt.Errorf("%w: corrupt directory", ErrFormat)
	ErrMissingRequired = fmt.Errorf("%w: missing required field", ErrFormat)
	ErrNoDirectory     = fmt.Errorf("%w: no such directory", ErrFormat)

	ErrShortRead  = fmt.Errorf("%w: short read", ErrIO)
	ErrShortWrite = fmt.Errorf("%w: short write", ErrIO)
)

// Error records the operation and tag that failed.
type Error struct {
	Op  string
	Tag Tag
	Err error
}

func (e *Error) Error() string {
	if e.Tag != 0 {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Tag, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CodecError is returned when a codec fails to encode or decode a strip
// or tile. Decoding failures match ErrFormat unless the codec reported
// ErrUnsupported.
type CodecError struct {
	Scheme  uint16
	Op      string // "decode" or "encode"
	Segment uint32
	Err     error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("tiff: %s %s of segment %d: %v", CompressionName(e.Scheme), e.Op, e.Segment, e.Err)
}

func (e *CodecError) Unwrap() error { return e.Err }

func (e *CodecError) Is(target error) bool {
	return target == ErrFormat && e.Op != "encode" && !errors.Is(e.Err, ErrUnsupported)
}

// MemoryLimitExceededError is returned when a buffer would grow beyond
// Options.MaxBufferSize.
type MemoryLimitExceededError struct {
	Requested int64
	Limit     int64
}

func (e *MemoryLimitExceededError) Error() string {
	return fmt.Sprintf("tiff: buffer of %d bytes exceeds limit of %d", e.Requested, e.Limit)
}

func (e *MemoryLimitExceededError) Is(target error) bool {
	return target == ErrValidation
}
