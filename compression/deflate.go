// Package compression provides the byte-level compression algorithms used
// by TIFF strips and tiles.
//
// Each scheme exposes a XCompress / XDecompressTo pair operating on whole
// strip or tile payloads. Sample layout, predictors and byte order are the
// caller's concern.
package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

// Deflate errors
var (
	ErrDeflateCorrupted = errors.New("compression: corrupted Deflate data")
	ErrDeflateShort     = errors.New("compression: Deflate data ended early")
)

// Level is a zlib compression level.
// Valid values are -2 to 9, where:
//   - -2: Huffman-only compression (klauspost extension)
//   - -1: Default compression (level 6)
//   - 0: No compression (store)
//   - 1: Best speed
//   - 9: Best compression
type Level int

// Standard compression levels
const (
	LevelHuffmanOnly Level = -2
	LevelDefault     Level = -1
	LevelNone        Level = 0
	LevelBestSpeed   Level = 1
	LevelBestSize    Level = 9
)

// Each pooled item contains both the writer and its destination buffer.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// DeflateCompress compresses src into a zlib stream at the given level.
// This is the payload format of both Compression=8 and Compression=32946.
func DeflateCompress(src []byte, level Level) ([]byte, error) {
	if level == LevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		defer zlibWriterPool.Put(item)
		item.buf.Reset()
		item.writer.Reset(item.buf)

		if _, err := item.writer.Write(src); err != nil {
			item.writer.Close()
			return nil, err
		}
		if err := item.writer.Close(); err != nil {
			return nil, err
		}
		return bytes.Clone(item.buf.Bytes()), nil
	}

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type zlibReaderPoolItem struct {
	reader io.ReadCloser
	src    *bytes.Reader
}

var zlibReaderPool = sync.Pool{
	New: func() any {
		return &zlibReaderPoolItem{src: bytes.NewReader(nil)}
	},
}

// DeflateDecompressTo inflates src into dst and returns the number of bytes
// produced. A stream that ends before dst is full yields ErrDeflateShort
// along with the partial count; bytes past len(dst) are ignored.
func DeflateDecompressTo(dst, src []byte) (int, error) {
	if len(src) == 0 {
		if len(dst) != 0 {
			return 0, ErrDeflateShort
		}
		return 0, nil
	}

	item := zlibReaderPool.Get().(*zlibReaderPoolItem)
	defer zlibReaderPool.Put(item)
	item.src.Reset(src)

	var err error
	if item.reader == nil {
		item.reader, err = zlib.NewReader(item.src)
	} else if resetter, ok := item.reader.(zlib.Resetter); ok {
		err = resetter.Reset(item.src, nil)
	} else {
		item.reader.Close()
		item.reader, err = zlib.NewReader(item.src)
	}
	if err != nil {
		item.reader = nil
		return 0, ErrDeflateCorrupted
	}

	n, err := io.ReadFull(item.reader, dst)
	switch {
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		return n, ErrDeflateShort
	case err != nil:
		return n, ErrDeflateCorrupted
	}
	return n, nil
}
