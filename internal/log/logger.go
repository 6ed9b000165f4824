// Package log provides structured logging for cursor-bucket.
//
// Components accept a Logger through functional options and fall back to
// the process-wide default, which is a noop until the CLI installs one.
//
// Output semantics:
//   - stdout: command results (paths written, tables, JSON)
//   - stderr: Debug, Info, Warn, Error diagnostics
//
// Verbosity levels:
//   - ERROR (--quiet)
//   - WARN (default)
//   - INFO (--verbose): one line per version written or skipped
//   - DEBUG (--debug): feed payloads, template paths, hash progress
package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature for easy integration.
type Logger interface {
	// Debug logs internal state such as rendered architectures or the
	// template chosen for a version.
	Debug(msg string, args ...any)

	// Info logs operational context like "manifest written".
	Info(msg string, args ...any)

	// Warn logs recoverable issues such as a history entry that was skipped.
	Warn(msg string, args ...any)

	// Error logs failures that stop the current operation.
	Error(msg string, args ...any)

	// With returns a Logger that adds the given key-value pairs to every entry.
	With(args ...any) Logger
}

// slogLogger wraps slog.Logger to implement the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

// NewCLI creates a text logger for terminal use. Timestamps are dropped
// since each run is short-lived and read by a person.
func NewCLI(w io.Writer, level slog.Level) Logger {
	return New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func (s *slogLogger) Debug(msg string, args ...any) {
	s.l.Debug(msg, args...)
}

func (s *slogLogger) Info(msg string, args ...any) {
	s.l.Info(msg, args...)
}

func (s *slogLogger) Warn(msg string, args ...any) {
	s.l.Warn(msg, args...)
}

func (s *slogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// Enabled reports whether the logger emits records at level. Loggers that
// are not slog-backed report false.
func Enabled(l Logger, level slog.Level) bool {
	s, ok := l.(*slogLogger)
	if !ok {
		return false
	}
	return s.l.Enabled(context.Background(), level)
}

// noopLogger discards all log output.
type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the process-wide logger, or a noop logger if SetDefault
// has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the process-wide logger. The CLI calls it once after
// reading the verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
