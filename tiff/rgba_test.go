package tiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

// u16s encodes samples in host order, the order strips are written in.
func u16s(v ...uint16) []byte {
	b := make([]byte, 2*len(v))
	for i, x := range v {
		binary.NativeEndian.PutUint16(b[2*i:], x)
	}
	return b
}

// readTopLeft converts the first directory of data into a w x h raster
// with row 0 at the top.
func readTopLeft(t *testing.T, data []byte, w, h uint32) []uint32 {
	t.Helper()
	f := openBytes(t, data, nil)
	defer f.Close()
	raster := make([]uint32, w*h)
	if err := f.ReadRGBAImageOriented(w, h, raster, OrientationTopLeft, true); err != nil {
		t.Fatalf("ReadRGBAImageOriented: %v", err)
	}
	return raster
}

func gray(v uint8) uint32 { return Pack(v, v, v, 0xff) }

func TestReadRGBAPixels(t *testing.T) {
	tests := []struct {
		name  string
		w, h  uint32
		setup func(t *testing.T, f *File)
		strip []byte
		want  []uint32
	}{
		{
			name: "gray8",
			w:    4, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 4, 1, 8, 1, PhotometricMinIsBlack)
			},
			strip: []byte{0, 64, 128, 255},
			want:  []uint32{gray(0), gray(64), gray(128), gray(255)},
		},
		{
			name: "gray8 min-is-white",
			w:    2, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 2, 1, 8, 1, PhotometricMinIsWhite)
			},
			strip: []byte{0, 255},
			want:  []uint32{gray(255), gray(0)},
		},
		{
			name: "bilevel min-is-white",
			w:    8, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 8, 1, 1, 1, PhotometricMinIsWhite)
			},
			strip: []byte{0x00},
			want:  []uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
		},
		{
			name: "bilevel min-is-black",
			w:    6, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 6, 1, 1, 1, PhotometricMinIsBlack)
			},
			strip: []byte{0x0f},
			want:  []uint32{gray(0), gray(0), gray(0), gray(0), gray(255), gray(255)},
		},
		{
			name: "gray 4-bit",
			w:    2, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 2, 1, 4, 1, PhotometricMinIsBlack)
			},
			strip: []byte{0xf5},
			want:  []uint32{gray(255), gray(85)},
		},
		{
			name: "gray16",
			w:    3, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 3, 1, 16, 1, PhotometricMinIsBlack)
			},
			strip: u16s(65535, 0, 0x8000),
			want:  []uint32{gray(255), gray(0), gray(128)},
		},
		{
			name: "gray half float",
			w:    5, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 5, 1, 16, 1, PhotometricMinIsBlack)
				mustSet(t, f, TagSampleFormat, Uint(SampleFormatIEEEFP))
			},
			// 1.0, 0.5, -1.0, 2.0, NaN
			strip: u16s(0x3c00, 0x3800, 0xbc00, 0x4000, 0x7e00),
			want:  []uint32{gray(255), gray(128), gray(0), gray(255), gray(0)},
		},
		{
			name: "gray with associated alpha",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 8, 2, PhotometricMinIsBlack)
				mustSet(t, f, TagExtraSamples, Uint16s(ExtraSampleAssocAlpha))
			},
			strip: []byte{200, 128},
			want:  []uint32{Pack(200, 200, 200, 128)},
		},
		{
			name: "gray with unassociated alpha",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 8, 2, PhotometricMinIsBlack)
				mustSet(t, f, TagExtraSamples, Uint16s(ExtraSampleUnassAlpha))
			},
			strip: []byte{200, 128},
			want:  []uint32{Pack(100, 100, 100, 128)},
		},
		{
			name: "rgb8",
			w:    2, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 2, 1, 8, 3, PhotometricRGB)
			},
			strip: []byte{10, 20, 30, 255, 0, 128},
			want:  []uint32{Pack(10, 20, 30, 255), Pack(255, 0, 128, 255)},
		},
		{
			name: "rgba associated",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 8, 4, PhotometricRGB)
				mustSet(t, f, TagExtraSamples, Uint16s(ExtraSampleAssocAlpha))
			},
			strip: []byte{255, 255, 255, 128},
			want:  []uint32{0x80ffffff},
		},
		{
			name: "rgba unassociated",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 8, 4, PhotometricRGB)
				mustSet(t, f, TagExtraSamples, Uint16s(ExtraSampleUnassAlpha))
			},
			strip: []byte{255, 255, 255, 128},
			want:  []uint32{0x80808080},
		},
		{
			name: "rgba unspecified extra sample",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 8, 4, PhotometricRGB)
				mustSet(t, f, TagExtraSamples, Uint16s(ExtraSampleUnspecified))
			},
			strip: []byte{1, 2, 3, 4},
			want:  []uint32{Pack(1, 2, 3, 4)},
		},
		{
			name: "rgb16",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 16, 3, PhotometricRGB)
			},
			strip: u16s(65535, 0, 32768),
			want:  []uint32{Pack(255, 0, 128, 255)},
		},
		{
			name: "palette 16-bit colormap",
			w:    4, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 4, 1, 2, 1, PhotometricPalette)
				mustSet(t, f, TagColorMap, Uint16s(
					0xffff, 0, 0, 0x8000,
					0, 0xffff, 0, 0x8000,
					0, 0, 0xffff, 0x8000,
				))
			},
			strip: []byte{0x1b},
			want: []uint32{
				Pack(255, 0, 0, 255), Pack(0, 255, 0, 255),
				Pack(0, 0, 255, 255), Pack(128, 128, 128, 255),
			},
		},
		{
			name: "palette 8-bit colormap",
			w:    2, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 2, 1, 1, 1, PhotometricPalette)
				mustSet(t, f, TagColorMap, Uint16s(0, 255, 0, 128, 0, 64))
			},
			strip: []byte{0x40},
			want:  []uint32{Pack(0, 0, 0, 255), Pack(255, 128, 64, 255)},
		},
		{
			name: "cmyk",
			w:    3, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 3, 1, 8, 4, PhotometricSeparated)
			},
			strip: []byte{255, 0, 0, 0, 0, 0, 0, 255, 0, 0, 0, 0},
			want:  []uint32{Pack(0, 255, 255, 255), gray(0), gray(255)},
		},
		{
			name: "ycbcr 1x1",
			w:    2, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 2, 1, 8, 3, PhotometricYCbCr)
				mustSet(t, f, TagYCbCrSubsampling, Uint16s(1, 1))
			},
			strip: []byte{255, 128, 128, 0, 128, 128},
			want:  []uint32{gray(255), gray(0)},
		},
		{
			name: "ycbcr 2x2 clipped",
			w:    3, h: 2,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 3, 2, 8, 3, PhotometricYCbCr)
				mustSet(t, f, TagYCbCrSubsampling, Uint16s(2, 2))
			},
			// Two blocks: four luma samples then Cb and Cr.
			strip: []byte{
				255, 0, 0, 255, 128, 128,
				0, 9, 255, 9, 128, 128,
			},
			want: []uint32{
				gray(255), gray(0), gray(0),
				gray(0), gray(255), gray(255),
			},
		},
		{
			name: "cielab black",
			w:    1, h: 1,
			setup: func(t *testing.T, f *File) {
				setImage(t, f, 1, 1, 8, 3, PhotometricCIELab)
			},
			strip: []byte{0, 0, 0},
			want:  []uint32{gray(0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := writeStrips(t, nil, func(f *File) { tt.setup(t, f) }, [][]byte{tt.strip})
			got := readTopLeft(t, data, tt.w, tt.h)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("pixel %d = %#08x, want %#08x", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadRGBACIELabWhite(t *testing.T) {
	data := writeStrips(t, nil, func(f *File) {
		setImage(t, f, 1, 1, 8, 3, PhotometricCIELab)
	}, [][]byte{{255, 0, 0}})
	got := readTopLeft(t, data, 1, 1)
	r, g, b, a := Unpack(got[0])
	if r != 255 || a != 255 {
		t.Errorf("L*=100 gives %d,%d,%d,%d, want full red and alpha", r, g, b, a)
	}
	if g < 200 || b < 200 {
		t.Errorf("L*=100 gives %d,%d,%d, want a light color", r, g, b)
	}
}

func TestReadRGBASeparatePlanes(t *testing.T) {
	ws := newMockWriteSeeker()
	f, err := Create(ws, quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 4, 2, 8, 4, PhotometricRGB)
	mustSet(t, f, TagPlanarConfig, Uint(PlanarSeparate))
	mustSet(t, f, TagExtraSamples, Uint16s(ExtraSampleAssocAlpha))
	for p, v := range []byte{10, 20, 30, 40} {
		plane := make([]byte, 8)
		for i := range plane {
			plane[i] = v
		}
		if _, err := f.WriteEncodedStrip(uint32(p), plane); err != nil {
			t.Fatalf("WriteEncodedStrip(%d): %v", p, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	for i, p := range readTopLeft(t, ws.Bytes(), 4, 2) {
		if want := Pack(10, 20, 30, 40); p != want {
			t.Fatalf("pixel %d = %#08x, want %#08x", i, p, want)
		}
	}
}

// tiledGray writes a 20x20 gray image in 16x16 tiles, each tile filled
// with 50 times its index plus one.
func tiledGray(t *testing.T) []byte {
	t.Helper()
	ws := newMockWriteSeeker()
	f, err := Create(ws, quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 20, 20, 8, 1, PhotometricMinIsBlack)
	mustSet(t, f, TagTileWidth, Uint(16))
	mustSet(t, f, TagTileLength, Uint(16))
	mustSet(t, f, TagCompression, Uint(CompressionLZW))
	for i := uint32(0); i < f.NumberOfTiles(); i++ {
		tile := make([]byte, f.TileSize())
		for j := range tile {
			tile[j] = byte(50*i + 1)
		}
		if _, err := f.WriteEncodedTile(i, tile); err != nil {
			t.Fatalf("WriteEncodedTile(%d): %v", i, err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return ws.Bytes()
}

func TestReadRGBATiled(t *testing.T) {
	raster := readTopLeft(t, tiledGray(t), 20, 20)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			tile := 0
			if x >= 16 {
				tile++
			}
			if y >= 16 {
				tile += 2
			}
			if want := gray(byte(50*tile + 1)); raster[y*20+x] != want {
				t.Fatalf("pixel (%d, %d) = %#08x, want %#08x", x, y, raster[y*20+x], want)
			}
		}
	}
}

func TestReadRGBATile(t *testing.T) {
	f := openBytes(t, tiledGray(t), nil)
	defer f.Close()
	raster := make([]uint32, 16*16)
	if err := f.ReadRGBATile(16, 0, raster); err != nil {
		t.Fatal(err)
	}
	// Bottom-up: raster row 15 is image row 0.
	if got, want := raster[15*16], gray(51); got != want {
		t.Errorf("tile pixel (0, 0) = %#08x, want %#08x", got, want)
	}
	if got := raster[15*16+4]; got != 0 {
		t.Errorf("pixel past the image edge = %#08x, want 0", got)
	}
	if err := f.ReadRGBATile(5, 0, raster); !errors.Is(err, ErrBadValue) {
		t.Errorf("ReadRGBATile(5, 0): %v, want ErrBadValue", err)
	}
	if err := f.ReadRGBAStrip(0, raster); !errors.Is(err, ErrBadValue) {
		t.Errorf("ReadRGBAStrip on a tiled image: %v, want ErrBadValue", err)
	}
}

func TestReadRGBAStrip(t *testing.T) {
	data := writeStrips(t, nil, func(f *File) {
		setImage(t, f, 2, 4, 8, 1, PhotometricMinIsBlack)
		mustSet(t, f, TagRowsPerStrip, Uint(2))
	}, [][]byte{{0, 1, 2, 3}, {4, 5, 6, 7}})
	f := openBytes(t, data, nil)
	defer f.Close()

	raster := make([]uint32, 2*2)
	if err := f.ReadRGBAStrip(2, raster); err != nil {
		t.Fatal(err)
	}
	want := []uint32{gray(6), gray(7), gray(4), gray(5)}
	for i := range want {
		if raster[i] != want[i] {
			t.Errorf("pixel %d = %#08x, want %#08x", i, raster[i], want[i])
		}
	}
	if err := f.ReadRGBAStrip(1, raster); !errors.Is(err, ErrBadValue) {
		t.Errorf("ReadRGBAStrip(1): %v, want ErrBadValue", err)
	}
	if err := f.ReadRGBATile(0, 0, raster); !errors.Is(err, ErrBadValue) {
		t.Errorf("ReadRGBATile on a stripped image: %v, want ErrBadValue", err)
	}
}

func TestReadRGBAOrientation(t *testing.T) {
	// Stored rows: [1 2] [3 4].
	store := func(orientation uint16) []byte {
		return writeStrips(t, nil, func(f *File) {
			setImage(t, f, 2, 2, 8, 1, PhotometricMinIsBlack)
			mustSet(t, f, TagOrientation, Uint(uint64(orientation)))
		}, [][]byte{{1, 2, 3, 4}})
	}
	tests := []struct {
		name      string
		stored    uint16
		requested uint16
		want      []byte
	}{
		{"topleft as botleft", OrientationTopLeft, OrientationBotLeft, []byte{3, 4, 1, 2}},
		{"topleft as topleft", OrientationTopLeft, OrientationTopLeft, []byte{1, 2, 3, 4}},
		{"topright as topleft", OrientationTopRight, OrientationTopLeft, []byte{2, 1, 4, 3}},
		{"botright as topleft", OrientationBotRight, OrientationTopLeft, []byte{4, 3, 2, 1}},
		{"botleft as botleft", OrientationBotLeft, OrientationBotLeft, []byte{1, 2, 3, 4}},
		{"lefttop as topleft", OrientationLeftTop, OrientationTopLeft, []byte{1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := openBytes(t, store(tt.stored), nil)
			defer f.Close()
			raster := make([]uint32, 4)
			if err := f.ReadRGBAImageOriented(2, 2, raster, tt.requested, true); err != nil {
				t.Fatal(err)
			}
			for i, v := range tt.want {
				if raster[i] != gray(v) {
					t.Errorf("pixel %d = %#08x, want %#08x", i, raster[i], gray(v))
				}
			}
		})
	}
}

func TestReadRGBARegion(t *testing.T) {
	data := writeStrips(t, nil, func(f *File) {
		setImage(t, f, 3, 3, 8, 1, PhotometricMinIsBlack)
		mustSet(t, f, TagRowsPerStrip, Uint(1))
	}, [][]byte{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	f := openBytes(t, data, nil)
	defer f.Close()
	img, err := NewRGBAImage(f, true)
	if err != nil {
		t.Fatal(err)
	}
	img.ReqOrientation = OrientationTopLeft
	img.SetOffset(1, 1)
	// A raster larger than what remains is padded with zeros.
	raster := make([]uint32, 3*3)
	if err := img.Get(raster, 3, 3); err != nil {
		t.Fatal(err)
	}
	want := []uint32{gray(5), gray(6), 0, gray(8), gray(9), 0, 0, 0, 0}
	for i := range want {
		if raster[i] != want[i] {
			t.Errorf("pixel %d = %#08x, want %#08x", i, raster[i], want[i])
		}
	}
	if err := img.Get(raster[:2], 3, 3); !errors.Is(err, ErrBadValue) {
		t.Errorf("Get with a short raster: %v, want ErrBadValue", err)
	}
}

func TestReadRGBAContinuesPastBadStrips(t *testing.T) {
	ws := newMockWriteSeeker()
	f, err := Create(ws, quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 8, 4, 8, 1, PhotometricMinIsBlack)
	mustSet(t, f, TagRowsPerStrip, Uint(2))
	mustSet(t, f, TagCompression, Uint(CompressionPackBits))
	if _, err := f.WriteRawStrip(0, []byte{3, 1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	good := make([]byte, 16)
	for i := range good {
		good[i] = 77
	}
	if _, err := f.WriteEncodedStrip(1, good); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := openBytes(t, ws.Bytes(), nil)
	defer r.Close()
	raster := make([]uint32, 8*4)
	if err := r.ReadRGBAImageOriented(8, 4, raster, OrientationTopLeft, true); !IsCodecError(err) {
		t.Fatalf("stop on error: %v, want a codec error", err)
	}

	err = r.ReadRGBAImageOriented(8, 4, raster, OrientationTopLeft, false)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("continue on error: %v, want ErrFormat", err)
	}
	for i, p := range raster {
		want := uint32(0)
		if i >= 16 {
			want = gray(77)
		}
		if p != want {
			t.Fatalf("pixel %d = %#08x, want %#08x", i, p, want)
		}
	}
}

func TestRGBAImageOK(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *File)
		ok    bool
	}{
		{"gray", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 8, 1, PhotometricMinIsBlack)
		}, true},
		{"12-bit samples", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 12, 1, PhotometricMinIsBlack)
		}, false},
		{"32-bit float", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 16, 1, PhotometricMinIsBlack)
			mustSet(t, f, TagSampleFormat, Uint(SampleFormatIEEEFP))
			mustSet(t, f, TagBitsPerSample, Uint(32))
		}, false},
		{"palette without colormap", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 8, 1, PhotometricPalette)
		}, false},
		{"separated with three inks", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 8, 3, PhotometricSeparated)
		}, false},
		{"cielab 4-bit", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 4, 3, PhotometricCIELab)
			mustSet(t, f, TagPlanarConfig, Uint(PlanarSeparate))
		}, false},
		{"rgb with two channels", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 8, 2, PhotometricRGB)
		}, false},
		{"mask", func(t *testing.T, f *File) {
			setImage(t, f, 1, 1, 1, 1, PhotometricMask)
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Create(newMockWriteSeeker(), quietOptions())
			if err != nil {
				t.Fatal(err)
			}
			tt.setup(t, f)
			ok, reason := RGBAImageOK(f)
			if ok != tt.ok {
				t.Fatalf("RGBAImageOK = %v (%q), want %v", ok, reason, tt.ok)
			}
			if !ok && reason == "" {
				t.Error("no reason given")
			}
			if !ok {
				if _, err := NewRGBAImage(f, true); !errors.Is(err, ErrUnsupported) {
					t.Errorf("NewRGBAImage: %v, want ErrUnsupported", err)
				}
			}
		})
	}
}

func TestReadRGBAYCbCrSubsampling(t *testing.T) {
	const w, h = 5, 3
	luma := func(x, y int) uint8 { return uint8(x*40 + y*70) }
	conv := newYCbCrConverter(nil, nil)

	tests := []struct{ hs, vs int }{
		{1, 2}, {2, 1}, {2, 2}, {4, 1}, {4, 2}, {4, 4},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d", tt.hs, tt.vs), func(t *testing.T) {
			across := (w + tt.hs - 1) / tt.hs
			down := (h + tt.vs - 1) / tt.vs
			cb := func(b int) uint8 { return uint8(90 + 7*b) }
			cr := func(b int) uint8 { return uint8(170 - 5*b) }

			// Samples past the right or bottom edge are padding.
			var strip []byte
			for by := 0; by < down; by++ {
				for bx := 0; bx < across; bx++ {
					for j := 0; j < tt.vs; j++ {
						for i := 0; i < tt.hs; i++ {
							x, y := bx*tt.hs+i, by*tt.vs+j
							if x < w && y < h {
								strip = append(strip, luma(x, y))
							} else {
								strip = append(strip, 0xee)
							}
						}
					}
					b := by*across + bx
					strip = append(strip, cb(b), cr(b))
				}
			}

			data := writeStrips(t, nil, func(f *File) {
				setImage(t, f, w, h, 8, 3, PhotometricYCbCr)
				mustSet(t, f, TagYCbCrSubsampling, Uint16s(uint16(tt.hs), uint16(tt.vs)))
			}, [][]byte{strip})
			got := readTopLeft(t, data, w, h)

			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					b := (y/tt.vs)*across + x/tt.hs
					want := conv.pack(luma(x, y), cb(b), cr(b))
					if got[y*w+x] != want {
						t.Errorf("pixel (%d, %d) = %#08x, want %#08x", x, y, got[y*w+x], want)
					}
				}
			}
		})
	}
}
