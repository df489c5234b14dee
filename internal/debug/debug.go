// Package debug holds the logger shared by the module's packages and
// the WAYLAND_DEBUG protocol trace.
package debug

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var (
	logger atomic.Pointer[slog.Logger]
	trace  atomic.Bool
)

func init() {
	logger.Store(slog.New(nopHandler{}))

	level, err := strconv.ParseInt(os.Getenv("WAYLAND_DEBUG"), 10, 0)
	if err == nil {
		trace.Store(level > 0)
	}
}

// SetLogger sets the logger used by every package in the module. By
// default nothing is logged. Passing nil restores the default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	logger.Store(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logger.Load()
}

// Tracing reports whether protocol messages are being traced. It is
// enabled by setting WAYLAND_DEBUG to a positive integer.
func Tracing() bool {
	return trace.Load()
}

// SetTracing enables or disables protocol tracing.
func SetTracing(enabled bool) {
	trace.Store(enabled)
}

// Printf logs a protocol trace line at debug level if tracing is
// enabled.
func Printf(str string, args ...any) {
	if !trace.Load() {
		return
	}
	logger.Load().Debug(fmt.Sprintf(str, args...))
}
