// Package logging builds the process logger from configuration.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/statecore/internal/config"
)

// Service is the value of the service field on every log line.
const Service = "statecore"

// Setup returns a logger writing to w at the configured level and format.
func Setup(cfg config.LogConfig, w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	out := w
	switch cfg.Format {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", Service).
		Logger(), nil
}
