// Package logger - zerolog construction shared by the CLI and the library.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error", ...).
	// Empty means info.
	Level string `json:"level" yaml:"level"`
	// Console renders human readable lines instead of JSON.
	Console bool `json:"console" yaml:"console"`
	// Writer receives the output; nil means stderr. Writes are serialized,
	// so a plain bytes.Buffer is safe to share between goroutines.
	Writer io.Writer `json:"-" yaml:"-"`
}

// New builds a timestamped logger.
//
// Arguments:
// - opts: Level, output format and destination.
//
// Returns:
// - The logger.
// - error if the level name is unknown.
//
// @example
// log, err := logger.New(logger.Options{Level: "debug", Console: true})
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	writer = zerolog.SyncWriter(writer)
	if opts.Console {
		writer = zerolog.ConsoleWriter{Out: writer}
	}

	return zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger(), nil
}

// ParseLevel maps a level name to a zerolog level; empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(err, "log level %q", name)
	}
	return level, nil
}

// Component returns a child logger tagged with the component name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
