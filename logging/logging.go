// Package logging builds the debug logger. A terminal UI owns stdout, so logs
// go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"termboard/config"
)

var logFile = "termboard/debug.log"

// Path returns the file cfg logs to.
func Path(cfg config.LogConfig) (string, error) {
	if cfg.File != "" {
		return cfg.File, nil
	}
	return xdg.CacheFile(logFile)
}

// New opens the debug log and returns a logger writing to it. The returned
// closer releases the file.
func New(cfg config.LogConfig) (zerolog.Logger, io.Closer, error) {
	path, err := Path(cfg)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("log path: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log: %w", err)
	}
	return NewWriter(f, cfg.Level), f, nil
}

// NewWriter returns a logger writing to w at the named level. An empty or
// unknown level logs at info.
func NewWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Console returns a human readable logger for command line output.
func Console(w io.Writer, level string) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return NewWriter(out, level)
}
