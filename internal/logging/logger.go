// Package logging configures the global zerolog logger and emits the
// one-line startup summary.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Format selects the log encoding.
type Format int

const (
	// FormatConsole writes human-readable lines to stderr (server, CLI).
	FormatConsole Format = iota
	// FormatJSON writes one JSON object per line to stdout (Lambda, where
	// CloudWatch Logs indexes the fields).
	FormatJSON
)

// ParseLevel maps debug, info, warn and error to zerolog levels. Anything
// else is info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Init sets the global log level and output format.
func Init(level string, format Format) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = newLogger(format, nil)
}

func newLogger(format Format, w io.Writer) zerolog.Logger {
	switch format {
	case FormatJSON:
		if w == nil {
			w = os.Stdout
		}
		return zerolog.New(w).With().Timestamp().Logger()
	default:
		if w == nil {
			w = os.Stderr
		}
		return log.Output(zerolog.ConsoleWriter{Out: w})
	}
}

// DefaultFormat returns FormatJSON when running on AWS Lambda and
// FormatConsole otherwise.
func DefaultFormat() Format {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return FormatJSON
	}
	return FormatConsole
}
