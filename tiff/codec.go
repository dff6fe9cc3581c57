package tiff

import (
	"encoding/binary"
	"fmt"
	"slices"
)

// Segment describes the strip or tile handed to a codec.
type Segment struct {
	// Index is the strip or tile number.
	Index uint32
	// Width is the pixel width of one row and Rows the number of rows.
	Width, Rows int
	// RowBytes is the decoded size of one row, or of one row of
	// subsampling blocks for subsampled YCbCr.
	RowBytes int
	// Bytes is the decoded size of the whole segment.
	Bytes int
	// Samples is the number of samples per pixel in this segment: 1 for a
	// separate plane.
	Samples int
	Bits    int
	// Order is the file byte order. Decoded multi-byte samples are
	// produced, and encoded ones consumed, in this order.
	Order binary.ByteOrder
	Dir   *Directory
}

// Codec converts strips and tiles between their stored and raw forms.
//
// Configure is called once each time a directory switches to the codec's
// scheme, and Cleanup once before the handle configures another codec.
// Decode writes at most len(dst) bytes and returns the count produced.
// Encode may overwrite src but must return a slice that does not alias it.
type Codec interface {
	Scheme() uint16
	Name() string
	// Configured reports whether the codec can run. Unconfigured codecs
	// are known by name only.
	Configured() bool
	Configure(d *Directory) error
	Decode(dst, src []byte, seg *Segment) (int, error)
	Encode(src []byte, seg *Segment) ([]byte, error)
	Cleanup()
}

// FieldCodec is implemented by codecs with pseudo-tags. Those tags are
// only known while the codec is bound, and are never written.
type FieldCodec interface {
	Codec
	Fields() []FieldInfo
	SetField(tag Tag, v Value) error
	GetField(tag Tag) (Value, bool)
}

// PredictorCodec is implemented by codecs whose data may carry a
// Predictor. The engine applies the predictor around them.
type PredictorCodec interface {
	UsesPredictor() bool
}

// FillOrderCodec is implemented by codecs that read bits in either fill
// order themselves.
type FillOrderCodec interface {
	HandlesFillOrder() bool
}

// UpsamplingCodec is implemented by codecs that may return YCbCr data as
// full resolution RGB.
type UpsamplingCodec interface {
	Upsampled() bool
}

// CodecRegistry maps compression schemes to codecs. A later registration
// for a scheme shadows an earlier one.
type CodecRegistry struct {
	codecs []Codec
}

// NewCodecRegistry returns a registry holding fresh built-in codecs.
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{codecs: builtinCodecs()}
}

// Register adds c, shadowing any codec for the same scheme.
func (r *CodecRegistry) Register(c Codec) {
	r.codecs = append(r.codecs, c)
}

// Unregister removes c. Codecs it shadowed become visible again.
func (r *CodecRegistry) Unregister(c Codec) bool {
	for i := len(r.codecs) - 1; i >= 0; i-- {
		if r.codecs[i] == c {
			r.codecs = slices.Delete(r.codecs, i, i+1)
			return true
		}
	}
	return false
}

// Find returns the codec for scheme, or nil.
func (r *CodecRegistry) Find(scheme uint16) Codec {
	for i := len(r.codecs) - 1; i >= 0; i-- {
		if r.codecs[i].Scheme() == scheme {
			return r.codecs[i]
		}
	}
	return nil
}

// IsConfigured reports whether scheme has a codec that can run.
func (r *CodecRegistry) IsConfigured(scheme uint16) bool {
	c := r.Find(scheme)
	return c != nil && c.Configured()
}

// Codecs returns the effective codec for every scheme, in scheme order.
func (r *CodecRegistry) Codecs() []Codec {
	seen := make(map[uint16]bool)
	var out []Codec
	for i := len(r.codecs) - 1; i >= 0; i-- {
		c := r.codecs[i]
		if !seen[c.Scheme()] {
			seen[c.Scheme()] = true
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b Codec) int { return int(a.Scheme()) - int(b.Scheme()) })
	return out
}

// bindCodec switches the handle to scheme. Binding the scheme already
// bound does nothing. While reading a directory an unconfigured scheme
// only warns, so that tags can still be inspected.
func (f *File) bindCodec(scheme uint16, reading bool) error {
	if f.codec != nil && f.codec.Scheme() == scheme {
		return nil
	}
	c := f.codecs.Find(scheme)
	if c == nil || !c.Configured() {
		err := fmt.Errorf("%w: compression scheme %d (%s) is not configured", ErrUnsupported, scheme, CompressionName(scheme))
		if !reading {
			return err
		}
		f.warnf("bindCodec", "%s; image data cannot be decoded", err)
		if c == nil {
			c = notConfigured(scheme)
		}
		f.releaseCodec()
		f.codec = c
		return nil
	}
	// The bound codec survives a failed switch on a write handle.
	if err := c.Configure(f.dir); err != nil {
		err = &CodecError{Scheme: scheme, Op: "configure", Err: err}
		if !reading {
			return err
		}
		f.warnf("bindCodec", "%s", err)
		c = notConfigured(scheme)
	}
	f.releaseCodec()
	f.codec = c
	return nil
}

// releaseCodec cleans up the bound codec.
func (f *File) releaseCodec() {
	if f.codec != nil {
		if f.codec.Configured() {
			f.codec.Cleanup()
		}
		f.codec = nil
	}
	f.coderReady = false
}

// codecField returns the pseudo-field for tag on the bound codec.
func (f *File) codecField(tag Tag) (FieldCodec, *FieldInfo) {
	fc, ok := f.codec.(FieldCodec)
	if !ok {
		return nil, nil
	}
	for _, fi := range fc.Fields() {
		if fi.Tag == tag {
			return fc, &fi
		}
	}
	return nil, nil
}

func (f *File) usesPredictor() bool {
	pc, ok := f.codec.(PredictorCodec)
	return ok && pc.UsesPredictor()
}

func (f *File) codecHandlesFillOrder() bool {
	fc, ok := f.codec.(FillOrderCodec)
	return ok && fc.HandlesFillOrder()
}

// IsUpSampled reports whether the bound codec delivers YCbCr data as
// full resolution RGB.
func (f *File) IsUpSampled() bool {
	uc, ok := f.codec.(UpsamplingCodec)
	return ok && uc.Upsampled()
}

// Codecs returns the handle's codec registry.
func (f *File) Codecs() *CodecRegistry { return f.codecs }
