// Package logging builds the application's zerolog logger.
//
// The standard library logger is redirected into the same sink so packages
// that still call log.Printf end up in one structured stream.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/mrlokans/influence/internal/config"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New returns a logger writing to w at the given level.
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "", FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime}
	case FormatJSON:
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// Setup builds the process logger from configuration, installs it as the
// zerolog global and routes the standard library logger through it.
func Setup(cfg config.Logging) (zerolog.Logger, error) {
	logger, err := New(os.Stderr, cfg.Level, cfg.Format)
	if err != nil {
		return logger, err
	}

	zlog.Logger = logger
	stdlog.SetFlags(0)
	stdlog.SetOutput(logger.With().Str("source", "stdlog").Logger())
	return logger, nil
}

// Printf adapts a zerolog logger to the Printf-style interfaces used by
// gorm and the task queue.
type Printf struct {
	Logger zerolog.Logger
}

func (p Printf) Printf(format string, args ...any) {
	p.Logger.Info().Msgf(format, args...)
}
