package tiff

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestOpenBadHeader(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrBadHeader},
		{"short", []byte("II*"), ErrBadHeader},
		{"bad marker", []byte("XX*\x00\x08\x00\x00\x00"), ErrBadHeader},
		{"bad magic", []byte("II\x2a\x01\x08\x00\x00\x00"), ErrBadHeader},
		{"bigtiff", []byte("II\x2b\x00\x08\x00\x00\x00"), ErrUnsupported},
		{"no directories", []byte("II*\x00\x00\x00\x00\x00"), ErrNoDirectory},
		{"directory past end", []byte("MM\x00*\x00\x00\x10\x00"), ErrFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(bytes.NewReader(tt.data), int64(len(tt.data)), quietOptions())
			if !errors.Is(err, tt.want) {
				t.Errorf("Open: %v, want %v", err, tt.want)
			}
		})
	}
}

func TestErrorsReachHandler(t *testing.T) {
	var modules []string
	opts := DefaultOptions()
	opts.Handler = HandlerFuncs{ErrorFunc: func(module string, err error) {
		modules = append(modules, module)
	}}
	data := []byte("XX*\x00\x08\x00\x00\x00")
	if _, err := Open(bytes.NewReader(data), int64(len(data)), &opts); err == nil {
		t.Fatal("Open succeeded on a bad header")
	}
	if len(modules) != 1 || modules[0] != "Open" {
		t.Errorf("handler saw %v, want [Open]", modules)
	}
}

// writeDirectories writes n single-strip gray directories whose widths
// are 1, 2, ... n.
func writeDirectories(t *testing.T, order binary.ByteOrder, n int) []byte {
	t.Helper()
	opts := quietOptions()
	opts.ByteOrder = order
	ws := newMockWriteSeeker()
	f, err := Create(ws, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		setImage(t, f, uint32(i), 1, 8, 1, PhotometricMinIsBlack)
		if _, err := f.WriteEncodedStrip(0, pattern(i, byte(i))); err != nil {
			t.Fatal(err)
		}
		if err := f.WriteDirectory(); err != nil {
			t.Fatal(err)
		}
	}
	if got, _ := f.NumberOfDirectories(); got != n {
		t.Errorf("NumberOfDirectories while writing = %d, want %d", got, n)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return ws.Bytes()
}

func TestMultipleDirectories(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		t.Run(order.String(), func(t *testing.T) {
			data := writeDirectories(t, order, 3)
			f := openBytes(t, data, nil)
			defer f.Close()

			n, err := f.NumberOfDirectories()
			if err != nil || n != 3 {
				t.Fatalf("NumberOfDirectories = %d, %v; want 3", n, err)
			}
			for i := 0; ; i++ {
				if got := f.Directory().Width(); got != uint32(i+1) {
					t.Errorf("directory %d width = %d, want %d", i, got, i+1)
				}
				if f.CurrentDirectory() != i {
					t.Errorf("CurrentDirectory = %d, want %d", f.CurrentDirectory(), i)
				}
				err := f.ReadDirectory()
				if err == io.EOF {
					if i != 2 {
						t.Errorf("chain ended after %d directories", i+1)
					}
					break
				}
				if err != nil {
					t.Fatal(err)
				}
			}
			if !f.LastDirectory() {
				t.Error("LastDirectory = false at the end of the chain")
			}

			if err := f.SetDirectory(1); err != nil {
				t.Fatal(err)
			}
			if got := f.Directory().Width(); got != 2 {
				t.Errorf("SetDirectory(1) width = %d, want 2", got)
			}
			buf := make([]byte, 2)
			if _, err := f.ReadEncodedStrip(0, buf); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf, pattern(2, 2)) {
				t.Errorf("directory 1 data = %v", buf)
			}
			if err := f.SetDirectory(3); !errors.Is(err, ErrNoDirectory) {
				t.Errorf("SetDirectory(3): %v, want ErrNoDirectory", err)
			}
		})
	}
}

// linkOffset returns the position of the link field of the directory
// at off.
func linkOffset(data []byte, order binary.ByteOrder, off uint32) uint32 {
	return off + 2 + 12*uint32(order.Uint16(data[off:]))
}

func TestDirectoryLoop(t *testing.T) {
	data := writeDirectories(t, binary.LittleEndian, 2)
	first := binary.LittleEndian.Uint32(data[4:])
	second := binary.LittleEndian.Uint32(data[linkOffset(data, binary.LittleEndian, first):])
	binary.LittleEndian.PutUint32(data[linkOffset(data, binary.LittleEndian, second):], first)

	f := openBytes(t, data, nil)
	defer f.Close()
	if err := f.ReadDirectory(); err != nil {
		t.Fatalf("ReadDirectory of the second directory: %v", err)
	}
	err := f.ReadDirectory()
	if !errors.Is(err, ErrDirectoryLoop) {
		t.Fatalf("ReadDirectory into the loop: %v, want ErrDirectoryLoop", err)
	}
	if !errors.Is(err, ErrFormat) {
		t.Error("ErrDirectoryLoop should match ErrFormat")
	}
	if _, err := f.NumberOfDirectories(); !errors.Is(err, ErrDirectoryLoop) {
		t.Errorf("NumberOfDirectories: %v, want ErrDirectoryLoop", err)
	}
	if err := f.SetDirectory(5); !errors.Is(err, ErrDirectoryLoop) {
		t.Errorf("SetDirectory(5): %v, want ErrDirectoryLoop", err)
	}
	// Going back is still possible.
	if err := f.SetDirectory(0); err != nil {
		t.Errorf("SetDirectory(0): %v", err)
	}
}

func TestSelfLinkedDirectory(t *testing.T) {
	data := writeDirectories(t, binary.BigEndian, 1)
	first := binary.BigEndian.Uint32(data[4:])
	binary.BigEndian.PutUint32(data[linkOffset(data, binary.BigEndian, first):], first)
	f := openBytes(t, data, nil)
	defer f.Close()
	if err := f.ReadDirectory(); !errors.Is(err, ErrDirectoryLoop) {
		t.Errorf("ReadDirectory: %v, want ErrDirectoryLoop", err)
	}
}

func TestAppend(t *testing.T) {
	data := writeDirectories(t, binary.BigEndian, 2)
	ws := newMockWriteSeeker()
	ws.Write(data)

	f, err := Append(ws, int64(len(data)), quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	if f.ByteOrder() != binary.BigEndian {
		t.Error("Append did not keep the file's byte order")
	}
	setImage(t, f, 7, 1, 8, 1, PhotometricMinIsBlack)
	if _, err := f.WriteEncodedStrip(0, pattern(7, 0)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := openBytes(t, ws.Bytes(), nil)
	defer r.Close()
	if n, err := r.NumberOfDirectories(); err != nil || n != 3 {
		t.Fatalf("NumberOfDirectories = %d, %v; want 3", n, err)
	}
	if err := r.SetDirectory(2); err != nil {
		t.Fatal(err)
	}
	if got := r.Directory().Width(); got != 7 {
		t.Errorf("appended width = %d, want 7", got)
	}
}

func TestCheckpointDirectory(t *testing.T) {
	ws := newMockWriteSeeker()
	f, err := Create(ws, quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 4, 4, 8, 1, PhotometricMinIsBlack)
	mustSet(t, f, TagRowsPerStrip, Uint(2))
	if _, err := f.WriteEncodedStrip(0, pattern(8, 1)); err != nil {
		t.Fatal(err)
	}
	if err := f.CheckpointDirectory(); err != nil {
		t.Fatal(err)
	}

	partial := bytes.Clone(ws.Bytes())
	p := openBytes(t, partial, nil)
	if n, _ := p.RawStripSize(1); n != 0 {
		t.Errorf("unwritten strip has %d bytes in the checkpoint", n)
	}
	p.Close()

	if _, err := f.WriteEncodedStrip(1, pattern(8, 2)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	r := openBytes(t, ws.Bytes(), nil)
	defer r.Close()
	if n, _ := r.NumberOfDirectories(); n != 1 {
		t.Errorf("NumberOfDirectories = %d, want 1", n)
	}
	buf := make([]byte, 8)
	if _, err := r.ReadEncodedStrip(1, buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf, pattern(8, 2)) {
		t.Errorf("strip 1 = %v after checkpoint", buf)
	}
}

func TestReadModeRejectsWrites(t *testing.T) {
	f := openBytes(t, writeDirectories(t, binary.LittleEndian, 1), nil)
	defer f.Close()
	if _, err := f.WriteEncodedStrip(0, make([]byte, 1)); !errors.Is(err, ErrWrongMode) {
		t.Errorf("WriteEncodedStrip: %v, want ErrWrongMode", err)
	}
	if err := f.CreateDirectory(); !errors.Is(err, ErrWrongMode) {
		t.Errorf("CreateDirectory: %v, want ErrWrongMode", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		mode    string
		want    Mode
		order   binary.ByteOrder
		chop    bool
		wantErr bool
	}{
		{"r", ModeRead, binary.LittleEndian, false, false},
		{"wb", ModeWrite, binary.BigEndian, false, false},
		{"wl", ModeWrite, binary.LittleEndian, false, false},
		{"rc", ModeRead, binary.LittleEndian, true, false},
		{"a", ModeAppend, binary.LittleEndian, false, false},
		{"x", 0, nil, false, true},
		{"rz", 0, nil, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			m, opts, err := ParseMode(tt.mode)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if m != tt.want {
				t.Errorf("mode = %v, want %v", m, tt.want)
			}
			if opts.ByteOrder != tt.order {
				t.Errorf("ByteOrder = %v, want %v", opts.ByteOrder, tt.order)
			}
			if opts.DisableStripChopping != tt.chop {
				t.Errorf("DisableStripChopping = %v, want %v", opts.DisableStripChopping, tt.chop)
			}
		})
	}
}

func TestRewriteCheckpointedDirectory(t *testing.T) {
	ws := newMockWriteSeeker()
	f, err := Create(ws, quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	setImage(t, f, 4, 2, 8, 1, PhotometricMinIsBlack)
	if _, err := f.WriteEncodedStrip(0, pattern(8, 1)); err != nil {
		t.Fatal(err)
	}
	if err := f.WriteDirectory(); err != nil {
		t.Fatal(err)
	}

	setImage(t, f, 4, 2, 8, 1, PhotometricMinIsBlack)
	if _, err := f.WriteEncodedStrip(0, pattern(8, 2)); err != nil {
		t.Fatal(err)
	}
	if err := f.CheckpointDirectory(); err != nil {
		t.Fatal(err)
	}
	checkpoint := f.CurrentDirOffset()
	mustSet(t, f, TagArtist, String("late"))
	if err := f.RewriteDirectory(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r := openBytes(t, ws.Bytes(), nil)
	defer r.Close()
	if n, _ := r.NumberOfDirectories(); n != 2 {
		t.Fatalf("NumberOfDirectories = %d, want 2", n)
	}
	if err := r.SetDirectory(1); err != nil {
		t.Fatal(err)
	}
	if r.CurrentDirOffset() == checkpoint {
		t.Error("chain still links the checkpointed copy")
	}
	v, err := r.GetField(TagArtist)
	if err != nil {
		t.Fatalf("GetField(Artist) error = %v", err)
	}
	if s, _ := v.Text(); s != "late" {
		t.Errorf("Artist = %q, want %q", s, "late")
	}
}

func TestLayoutDirectory(t *testing.T) {
	le := binary.LittleEndian
	entries := []ifdEntry{
		{tag: TagImageWidth, typ: TypeShort, count: 1, data: []byte{5, 0}},
		{tag: TagArtist, typ: TypeASCII, count: 5, data: []byte("abcd\x00")},
		{tag: TagXResolution, typ: TypeRational, count: 1, data: []byte{72, 0, 0, 0, 1, 0, 0, 0}},
	}
	block, link := layoutDirectory(entries, 100, le)

	if link != 2+3*entrySize {
		t.Errorf("link = %d, want %d", link, 2+3*entrySize)
	}
	if got := le.Uint16(block); got != 3 {
		t.Errorf("entry count = %d, want 3", got)
	}
	if !bytes.Equal(block[10:12], []byte{5, 0}) {
		t.Errorf("inline value = %v, want [5 0]", block[10:12])
	}
	if got := le.Uint32(block[link:]); got != 0 {
		t.Errorf("next directory link = %d, want 0", got)
	}
	// The five-byte string is padded so the rational starts on a word.
	artist := le.Uint32(block[2+entrySize+8:])
	xres := le.Uint32(block[2+2*entrySize+8:])
	if artist != 142 || xres != 148 {
		t.Errorf("value offsets = %d, %d, want 142, 148", artist, xres)
	}
	if !bytes.Equal(block[artist-100:artist-100+5], []byte("abcd\x00")) {
		t.Error("string value not at its offset")
	}
	if len(block) != 56 {
		t.Errorf("block length = %d, want 56", len(block))
	}
}
