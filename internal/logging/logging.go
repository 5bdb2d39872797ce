// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// InitDefault sets up a console logger before flags and env are parsed.
func InitDefault() {
	log.Logger = New(os.Stderr, FormatConsole)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init replaces the global logger according to level and format.
func Init(level string, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level '%s': %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch format {
	case FormatConsole, FormatJSON:
	default:
		return fmt.Errorf("invalid log format '%s' (want %s or %s)", format, FormatConsole, FormatJSON)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = New(os.Stderr, format)
	zerolog.DefaultContextLogger = &log.Logger
	return nil
}

func New(w io.Writer, format string) zerolog.Logger {
	if format == FormatJSON {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}
