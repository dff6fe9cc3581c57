package tiff

import (
	"context"
	"fmt"
	"log/slog"
)

// Handler receives the warnings and errors a File reports.
//
// Warnings never abort the call that produced them. Errors are also
// returned to the caller; the handler sees them first so tools can log
// every problem in one place.
type Handler interface {
	Warning(module, msg string)
	Error(module string, err error)
}

// logHandler reports through a slog.Logger. A nil logger means
// slog.Default() at the time of the report.
type logHandler struct {
	logger *slog.Logger
}

// NewLogHandler returns a Handler that logs through l.
func NewLogHandler(l *slog.Logger) Handler {
	return logHandler{logger: l}
}

// DefaultHandler returns the handler new files start with. It logs
// through slog.Default.
func DefaultHandler() Handler {
	return logHandler{}
}

func (h logHandler) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func (h logHandler) Warning(module, msg string) {
	h.log().Warn(msg, "module", module)
}

func (h logHandler) Error(module string, err error) {
	h.log().LogAttrs(context.Background(), slog.LevelError, "tiff error",
		slog.String("module", module), slog.Any("error", err))
}

type discardHandler struct{}

func (discardHandler) Warning(string, string) {}
func (discardHandler) Error(string, error)    {}

// DiscardHandler drops every report.
var DiscardHandler Handler = discardHandler{}

// HandlerFuncs adapts plain functions to a Handler. Nil members are ignored.
type HandlerFuncs struct {
	WarningFunc func(module, msg string)
	ErrorFunc   func(module string, err error)
}

func (h HandlerFuncs) Warning(module, msg string) {
	if h.WarningFunc != nil {
		h.WarningFunc(module, msg)
	}
}

func (h HandlerFuncs) Error(module string, err error) {
	if h.ErrorFunc != nil {
		h.ErrorFunc(module, err)
	}
}

// SetHandler installs h for this file and returns the previous handler.
// A nil h restores DefaultHandler.
func (f *File) SetHandler(h Handler) Handler {
	old := f.handler
	if h == nil {
		h = DefaultHandler()
	}
	f.handler = h
	return old
}

// Handler returns the handler currently installed on f.
func (f *File) Handler() Handler {
	return f.handler
}

// PushHandler installs h and returns a function that restores the previous
// handler, for use with defer.
func (f *File) PushHandler(h Handler) (restore func()) {
	old := f.SetHandler(h)
	return func() { f.handler = old }
}

func (f *File) warnf(module, format string, args ...any) {
	f.handler.Warning(module, fmt.Sprintf(format, args...))
}

// fail reports err to the handler and returns it.
func (f *File) fail(module string, err error) error {
	f.handler.Error(module, err)
	return err
}
