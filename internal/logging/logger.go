package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New builds the process logger at level writing to stderr, human-readable
// unless asJSON, and installs it as the zerolog global.
func New(app, level string, asJSON bool) zerolog.Logger {
	var out io.Writer = os.Stderr
	if !asJSON {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	logger := NewWithWriter(out, app, level)
	log.Logger = logger
	return logger
}

// NewWithWriter builds a logger writing to w without touching globals.
func NewWithWriter(w io.Writer, app, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel maps a level name to a zerolog level; unknown names are info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "disabled":
		return zerolog.Disabled
	case "":
		return zerolog.InfoLevel
	}
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}
