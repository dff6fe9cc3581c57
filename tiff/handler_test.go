package tiff

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestPushHandlerRestores(t *testing.T) {
	f, err := Create(newMockWriteSeeker(), quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	var outer, inner []string
	record := func(dst *[]string) Handler {
		return HandlerFuncs{ErrorFunc: func(module string, err error) {
			*dst = append(*dst, module)
		}}
	}
	badFillOrder := func() {
		if err := f.SetField(TagFillOrder, Uint(7)); !errors.Is(err, ErrBadValue) {
			t.Fatalf("SetField(FillOrder, 7): %v, want ErrBadValue", err)
		}
	}

	restoreOuter := f.PushHandler(record(&outer))
	restoreInner := f.PushHandler(record(&inner))
	badFillOrder()
	restoreInner()
	badFillOrder()
	restoreOuter()
	badFillOrder()

	if len(inner) != 1 || inner[0] != "SetField" {
		t.Errorf("inner handler saw %v, want [SetField]", inner)
	}
	if len(outer) != 1 {
		t.Errorf("outer handler saw %v, want one report", outer)
	}
	if f.Handler() != DiscardHandler {
		t.Errorf("Handler() = %T after restoring, want DiscardHandler", f.Handler())
	}
}

func TestSetHandlerNil(t *testing.T) {
	f, err := Create(newMockWriteSeeker(), quietOptions())
	if err != nil {
		t.Fatal(err)
	}
	if old := f.SetHandler(nil); old != DiscardHandler {
		t.Errorf("SetHandler() returned %T, want DiscardHandler", old)
	}
	if _, ok := f.Handler().(logHandler); !ok {
		t.Errorf("Handler() = %T after SetHandler(nil), want the default log handler", f.Handler())
	}
}

func TestLogHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewLogHandler(slog.New(slog.NewTextHandler(&buf, nil)))

	h.Warning("ReadDirectory", "bogus")
	out := buf.String()
	for _, want := range []string{"level=WARN", "msg=bogus", "module=ReadDirectory"} {
		if !strings.Contains(out, want) {
			t.Errorf("warning output %q lacks %q", out, want)
		}
	}

	buf.Reset()
	h.Error("Open", ErrBadHeader)
	out = buf.String()
	for _, want := range []string{"level=ERROR", "module=Open", "error="} {
		if !strings.Contains(out, want) {
			t.Errorf("error output %q lacks %q", out, want)
		}
	}
}
