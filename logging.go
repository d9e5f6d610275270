package postsocket

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the small logging façade used throughout this package, kept as
// a narrow interface so embedders can substitute whatever logging library
// their application already uses without pulling zerolog in transitively.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
}

// zerologLogger is the default Logger, backed by github.com/rs/zerolog.
type zerologLogger struct {
	l zerolog.Logger
}

// NewDefaultLogger returns a Logger that writes structured, leveled console
// output via zerolog, scoped with a "component" field.
func NewDefaultLogger(component string) Logger {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Str("component", component).
		Logger()
	return &zerologLogger{l: l}
}

func (z *zerologLogger) Debugf(format string, v ...interface{}) { z.l.Debug().Msgf(format, v...) }
func (z *zerologLogger) Infof(format string, v ...interface{})  { z.l.Info().Msgf(format, v...) }
func (z *zerologLogger) Warnf(format string, v ...interface{})  { z.l.Warn().Msgf(format, v...) }
func (z *zerologLogger) Errorf(format string, v ...interface{}) { z.l.Error().Msgf(format, v...) }

// nopLogger discards everything; used in tests that don't want console
// noise.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }
