package compression

import (
	"bytes"
	"errors"
	"io"

	"golang.org/x/image/tiff/lzw"
)

// LZW errors
var (
	ErrLZWCorrupted = errors.New("compression: corrupted LZW data")
	ErrLZWShort     = errors.New("compression: LZW data ended early")
	ErrLZWOldStyle  = errors.New("compression: pre-6.0 LSB-first LZW is not supported")
)

const (
	lzwClear    = 256
	lzwEOI      = 257
	lzwFirst    = 258
	lzwMinWidth = 9
	lzwMaxWidth = 12
	lzwCodeMax  = 1<<lzwMaxWidth - 1
)

// LZWDecompressTo decodes a TIFF LZW stream (Compression=5) into dst and
// returns the number of bytes produced.
func LZWDecompressTo(dst, src []byte) (int, error) {
	if len(src) >= 2 && src[0] == 0 && src[1]&0x1 != 0 {
		return 0, ErrLZWOldStyle
	}
	r := lzw.NewReader(bytes.NewReader(src), lzw.MSB, 8)
	defer r.Close()

	n, err := io.ReadFull(r, dst)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return n, ErrLZWShort
	case err != nil:
		return n, ErrLZWCorrupted
	}
	return n, nil
}

// msbBitWriter packs variable-width codes most significant bit first.
type msbBitWriter struct {
	out   []byte
	acc   uint32
	nbits uint
}

func (w *msbBitWriter) write(code uint32, width uint) {
	w.acc = w.acc<<width | code
	w.nbits += width
	for w.nbits >= 8 {
		w.nbits -= 8
		w.out = append(w.out, byte(w.acc>>w.nbits))
	}
	w.acc &= 1<<w.nbits - 1
}

func (w *msbBitWriter) flush() []byte {
	if w.nbits > 0 {
		w.out = append(w.out, byte(w.acc<<(8-w.nbits)))
		w.nbits, w.acc = 0, 0
	}
	return w.out
}

// LZWCompress encodes src as a TIFF LZW stream. Codes are written MSB first
// and the code width grows one code early, as TIFF 6.0 readers expect.
func LZWCompress(src []byte) []byte {
	w := &msbBitWriter{out: make([]byte, 0, len(src)/2+16)}
	width := uint(lzwMinWidth)
	w.write(lzwClear, width)
	if len(src) == 0 {
		w.write(lzwEOI, width)
		return w.flush()
	}

	dict := make(map[uint32]uint16, 4096)
	next := lzwFirst
	// grow accounts for a newly assigned code and emits a clear when the
	// table is full.
	grow := func() {
		next++
		if next == lzwCodeMax-1 {
			w.write(lzwClear, width)
			clear(dict)
			width = lzwMinWidth
			next = lzwFirst
		} else if next > 1<<width-1 {
			width++
		}
	}

	prefix := uint32(src[0])
	for _, c := range src[1:] {
		key := prefix<<8 | uint32(c)
		if code, ok := dict[key]; ok {
			prefix = uint32(code)
			continue
		}
		w.write(prefix, width)
		dict[key] = uint16(next)
		grow()
		prefix = uint32(c)
	}
	w.write(prefix, width)
	grow()
	w.write(lzwEOI, width)
	return w.flush()
}
