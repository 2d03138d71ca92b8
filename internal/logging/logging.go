// Package logging builds the zerolog loggers used across the server.
//
// stdout carries the MCP protocol, so every logger writes to stderr or to
// an explicit writer.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable that overrides the log level.
const EnvLevel = "COIN_MEASURE_LOG_LEVEL"

// New returns a JSON logger at level writing to w.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// NewConsole returns a human-readable logger on stderr.
func NewConsole(level zerolog.Level) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}, level)
}

// ParseLevel converts a level name to a zerolog level. An empty name means
// info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(name)
}

// ResolveLevel picks the effective level name: the environment variable
// wins over the flag, which wins over the configured value.
func ResolveLevel(configured, flag string) string {
	if env := os.Getenv(EnvLevel); env != "" {
		return env
	}
	if flag != "" {
		return flag
	}
	return configured
}

// Component returns a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
