// Package logging builds zerolog loggers for relay binaries.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Format - log output format.
type Format string

const (
	// FormatConsole - human friendly output with short timestamps.
	FormatConsole Format = "console"
	// FormatJSON - one JSON object per line.
	FormatJSON Format = "json"
)

// New - builds logger writing to out with given level and format.
// Unknown level falls back to info.
func New(out io.Writer, level string, format Format) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if format != FormatJSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: consoleTimeFormat}
	}
	return zerolog.New(out).
		Level(ParseLevel(level, zerolog.InfoLevel)).
		With().
		Timestamp().
		Logger()
}

// ParseLevel - converts level name into zerolog level, def is returned for unknown names.
func ParseLevel(s string, def zerolog.Level) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return def
	}
}
