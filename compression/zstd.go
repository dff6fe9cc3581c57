package compression

import (
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrZSTDCorrupted is returned for undecodable Zstandard payloads.
var ErrZSTDCorrupted = errors.New("compression: corrupted Zstandard data")

// DefaultZSTDLevel matches the libzstd default.
const DefaultZSTDLevel = 9

var (
	zstdDecoderOnce sync.Once
	zstdDecoder     *zstd.Decoder
	zstdDecoderErr  error

	zstdEncoders sync.Map // zstd.EncoderLevel -> *zstd.Encoder
)

func sharedZSTDDecoder() (*zstd.Decoder, error) {
	zstdDecoderOnce.Do(func() {
		zstdDecoder, zstdDecoderErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	})
	return zstdDecoder, zstdDecoderErr
}

// ZSTDCompress encodes src as one Zstandard frame (Compression=50000).
// level uses the libzstd 1..22 scale.
func ZSTDCompress(src []byte, level int) ([]byte, error) {
	if level <= 0 {
		level = DefaultZSTDLevel
	}
	el := zstd.EncoderLevelFromZstd(level)
	if enc, ok := zstdEncoders.Load(el); ok {
		return enc.(*zstd.Encoder).EncodeAll(src, nil), nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(el), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	actual, _ := zstdEncoders.LoadOrStore(el, enc)
	return actual.(*zstd.Encoder).EncodeAll(src, nil), nil
}

// ZSTDDecompressTo decodes src into dst and returns the number of bytes
// copied. Output beyond len(dst) is discarded.
func ZSTDDecompressTo(dst, src []byte) (int, error) {
	dec, err := sharedZSTDDecoder()
	if err != nil {
		return 0, err
	}
	out, err := dec.DecodeAll(src, make([]byte, 0, len(dst)))
	if err != nil {
		return 0, ErrZSTDCorrupted
	}
	n := copy(dst, out)
	if n < len(dst) {
		return n, ErrZSTDCorrupted
	}
	return n, nil
}
