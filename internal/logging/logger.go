// Package logging wraps zerolog with the conventions hubrelay logs by: a
// subsystem field per component and a requestId field per HTTP request.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Console styles accepted by NewWithStyle.
const (
	StylePretty = "pretty"
	StyleJSON   = "json"
)

var levels = map[string]zerolog.Level{
	"trace":  zerolog.TraceLevel,
	"debug":  zerolog.DebugLevel,
	"info":   zerolog.InfoLevel,
	"warn":   zerolog.WarnLevel,
	"error":  zerolog.ErrorLevel,
	"fatal":  zerolog.FatalLevel,
	"silent": zerolog.Disabled,
}

// ValidLevel reports whether name is a level New understands.
func ValidLevel(name string) bool {
	_, ok := levels[name]
	return ok
}

// Logger is a zerolog logger scoped to a subsystem and, optionally, a request.
type Logger struct {
	zl zerolog.Logger
}

// New creates a root logger writing JSON lines to w. A nil w selects the
// pretty console writer on stderr. Unknown levels fall back to info.
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).With().Timestamp().Logger().Level(parseLevel(level))
	return &Logger{zl: zl}
}

// NewWithStyle creates a root logger on stderr in the configured console style.
func NewWithStyle(style, level string) *Logger {
	if style == StyleJSON {
		return New(os.Stderr, level)
	}
	return New(nil, level)
}

// Sub returns a child logger tagged with a subsystem name.
func (l *Logger) Sub(subsystem string) *Logger {
	return l.With("subsystem", subsystem)
}

// With returns a child logger carrying an extra string field.
func (l *Logger) With(key, value string) *Logger {
	return &Logger{zl: l.zl.With().Str(key, value).Logger()}
}

func (l *Logger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *Logger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *Logger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *Logger) Error() *zerolog.Event { return l.zl.Error() }

func parseLevel(name string) zerolog.Level {
	if lvl, ok := levels[name]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}
