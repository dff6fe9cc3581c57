package tiff

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

const schemeXOR = 65000

// xorCodec is a trivial application codec that counts its lifecycle calls.
type xorCodec struct {
	configures, cleanups int
}

func (c *xorCodec) Scheme() uint16             { return schemeXOR }
func (c *xorCodec) Name() string               { return "XOR" }
func (c *xorCodec) Configured() bool           { return true }
func (c *xorCodec) Configure(*Directory) error { c.configures++; return nil }
func (c *xorCodec) Cleanup()                   { c.cleanups++ }

func (c *xorCodec) Decode(dst, src []byte, _ *Segment) (int, error) {
	n := copy(dst, src)
	for i := range dst[:n] {
		dst[i] ^= 0x5a
	}
	return n, nil
}

func (c *xorCodec) Encode(src []byte, _ *Segment) ([]byte, error) {
	out := make([]byte, len(src))
	for i, b := range src {
		out[i] = b ^ 0x5a
	}
	return out, nil
}

func TestCodecRegistry(t *testing.T) {
	r := NewCodecRegistry()
	for _, scheme := range []uint16{CompressionNone, CompressionLZW, CompressionPackBits, CompressionAdobeDeflate, CompressionZSTD} {
		if !r.IsConfigured(scheme) {
			t.Errorf("IsConfigured(%s) = false", CompressionName(scheme))
		}
	}
	if c := r.Find(CompressionLZMA); c == nil || c.Configured() {
		t.Errorf("Find(LZMA) = %v, want a registered but unconfigured codec", c)
	}
	if r.Find(schemeXOR) != nil || r.IsConfigured(schemeXOR) {
		t.Fatal("scheme 65000 is known before registration")
	}

	first, second := &xorCodec{}, &xorCodec{}
	r.Register(first)
	r.Register(second)
	if r.Find(schemeXOR) != second {
		t.Error("later registration does not shadow the earlier one")
	}
	if !r.Unregister(second) {
		t.Fatal("Unregister() = false")
	}
	if r.Find(schemeXOR) != first {
		t.Error("unregistering does not uncover the shadowed codec")
	}
	if r.Unregister(second) {
		t.Error("Unregister() of a removed codec = true")
	}

	schemes := make([]uint16, 0)
	for _, c := range r.Codecs() {
		schemes = append(schemes, c.Scheme())
	}
	if !slices.IsSorted(schemes) {
		t.Errorf("Codecs() not in scheme order: %v", schemes)
	}
	if slices.Index(schemes, schemeXOR) < 0 {
		t.Error("Codecs() omits the registered codec")
	}
}

func TestCodecLifecycle(t *testing.T) {
	c := &xorCodec{}
	opts := quietOptions()
	opts.Codecs = []Codec{c}
	f, err := Create(newMockWriteSeeker(), opts)
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 4, 2, 8, 1, PhotometricMinIsBlack)

	mustSet(t, f, TagCompression, Uint(schemeXOR))
	if c.configures != 1 || c.cleanups != 0 {
		t.Fatalf("after binding: configures = %d, cleanups = %d", c.configures, c.cleanups)
	}
	// Setting the bound scheme again is a no-op.
	mustSet(t, f, TagCompression, Uint(schemeXOR))
	if c.configures != 1 {
		t.Errorf("rebinding the same scheme configured again (%d)", c.configures)
	}
	mustSet(t, f, TagCompression, Uint(CompressionNone))
	if c.cleanups != 1 {
		t.Errorf("switching away: cleanups = %d, want 1", c.cleanups)
	}
	mustSet(t, f, TagCompression, Uint(schemeXOR))
	if c.configures != 2 || c.cleanups != 1 {
		t.Errorf("after rebinding: configures = %d, cleanups = %d", c.configures, c.cleanups)
	}
}

func TestApplicationCodecRoundTrip(t *testing.T) {
	withCodec := func() *Options {
		o := quietOptions()
		o.Codecs = []Codec{&xorCodec{}}
		return o
	}
	want := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	data := writeStrips(t, withCodec(), func(f *File) {
		setImage(t, f, 4, 2, 8, 1, PhotometricMinIsBlack)
		mustSet(t, f, TagCompression, Uint(schemeXOR))
	}, [][]byte{want})

	f := openBytes(t, data, withCodec())
	raw := make([]byte, 8)
	if _, err := f.ReadRawStrip(0, raw); err != nil {
		t.Fatalf("ReadRawStrip() error = %v", err)
	}
	if raw[0] != 0x5a {
		t.Errorf("stored byte 0 = %#x, want 0x5a", raw[0])
	}
	got := make([]byte, 8)
	if _, err := f.ReadEncodedStrip(0, got); err != nil {
		t.Fatalf("ReadEncodedStrip() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("ReadEncodedStrip() = %v, want %v", got, want)
	}
	f.Close()

	// Without the codec the tags still read, the data does not.
	f = openBytes(t, data, nil)
	defer f.Close()
	if got := f.Directory().Compression(); got != schemeXOR {
		t.Errorf("Compression = %d, want %d", got, schemeXOR)
	}
	if _, err := f.ReadEncodedStrip(0, got); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ReadEncodedStrip() without codec: %v, want ErrUnsupported", err)
	}
}

func TestStripChopping(t *testing.T) {
	const w, h = 100, 200
	img := pattern(w*h, 7)
	data := writeStrips(t, nil, func(f *File) {
		setImage(t, f, w, h, 8, 1, PhotometricMinIsBlack)
	}, [][]byte{img})

	f := openBytes(t, data, nil)
	defer f.Close()
	// 8192 / 100 rows per chopped strip.
	if n := f.NumberOfStrips(); n != 3 {
		t.Fatalf("NumberOfStrips = %d, want 3", n)
	}
	if rps := f.Directory().RowsPerStrip(); rps != 81 {
		t.Errorf("RowsPerStrip = %d, want 81", rps)
	}
	var got []byte
	buf := make([]byte, f.StripSize())
	for s := uint32(0); s < 3; s++ {
		n, err := f.ReadEncodedStrip(s, buf)
		if err != nil {
			t.Fatalf("ReadEncodedStrip(%d) error = %v", s, err)
		}
		got = append(got, buf[:n]...)
	}
	if !bytes.Equal(got, img) {
		t.Error("chopped strips do not reassemble the image")
	}

	opts := quietOptions()
	opts.DisableStripChopping = true
	g := openBytes(t, data, opts)
	defer g.Close()
	if n := g.NumberOfStrips(); n != 1 {
		t.Errorf("NumberOfStrips with chopping disabled = %d, want 1", n)
	}
}

// brokenCodec never configures.
type brokenCodec struct{ xorCodec }

func (c *brokenCodec) Scheme() uint16 { return schemeXOR + 1 }

func (c *brokenCodec) Configure(*Directory) error { return errors.New("no tables") }

func TestFailedSwitchKeepsCodec(t *testing.T) {
	good := &xorCodec{}
	opts := quietOptions()
	opts.Codecs = []Codec{good, &brokenCodec{}}
	f, err := Create(newMockWriteSeeker(), opts)
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 4, 2, 8, 1, PhotometricMinIsBlack)
	mustSet(t, f, TagCompression, Uint(schemeXOR))

	err = f.SetField(TagCompression, Uint(schemeXOR+1))
	var ce *CodecError
	if !errors.As(err, &ce) || ce.Op != "configure" {
		t.Fatalf("SetField(Compression) error = %v, want a configure CodecError", err)
	}
	if f.codec != good {
		t.Errorf("bound codec = %T after a failed switch, want the previous codec", f.codec)
	}
	if good.cleanups != 0 {
		t.Errorf("previous codec cleaned up %d times", good.cleanups)
	}
	if got := f.Directory().Compression(); got != schemeXOR {
		t.Errorf("Compression = %d, want %d", got, schemeXOR)
	}
}
