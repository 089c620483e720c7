package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// LogConfig selects log level and output.
type LogConfig struct {
	Level   string `yaml:"level"`   // debug, info, warn, error
	Console bool   `yaml:"console"` // human readable output
	File    string `yaml:"file"`    // empty for stderr
}

// Validate checks the level name.
func (c LogConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return errors.Errorf("invalid log.level: %q", c.Level)
	}
	return nil
}

// NewLogger builds a logger writing where c says. The returned closer
// releases the log file, if any.
func (c LogConfig) NewLogger() (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if c.File != "" {
		f, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrap(err, "open log file")
		}
		w, closer = f, f
	}
	if c.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: c.File != ""}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closer, nil
}
