// Package sysutil holds process-level helpers: global zerolog setup and small
// string utilities used while wiring the server.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// SetupLogger configures the global zerolog logger: level from lvl, a
// human-readable console writer when pretty, JSON lines on stderr otherwise.
// Errors wrapped by github.com/pkg/errors log their stack under "stack".
func SetupLogger(lvl string, pretty bool) {
	setupLogger(os.Stderr, lvl, pretty)
}

func setupLogger(w io.Writer, lvl string, pretty bool) {
	SetLogLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLogLevel sets the global zerolog level from lvl and returns it. Any
// zerolog level name is accepted, case-insensitively, plus "warning"; blank
// or unknown names mean info.
func SetLogLevel(lvl string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(lvl))
	if name == "warning" {
		name = "warn"
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
