package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`       // trace, debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	TimeFormat string `yaml:"time_format"` // RFC3339, Unix, or custom format
	Output     string `yaml:"output"`      // stdout, stderr, or file path
}

// DefaultConfig logs human readable output to stderr so stdout stays free
// for hOCR.
func DefaultConfig() LogConfig {
	return LogConfig{
		Level:      "info",
		Format:     "console",
		TimeFormat: time.RFC3339,
		Output:     "stderr",
	}
}

// Setup initializes the global logger with the provided configuration.
// The returned closer releases the log file, if one was opened.
func Setup(config LogConfig) (io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer
	closer := io.Closer(nopCloser{})
	switch config.Output {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = file
		closer = file
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	log.Logger = New(output, config.Format, config.TimeFormat)
	return closer, nil
}

// New builds a logger writing to w. Unknown formats fall back to console.
func New(w io.Writer, format, timeFormat string) zerolog.Logger {
	if strings.ToLower(format) != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: timeFormat,
			NoColor:    w != os.Stderr && w != os.Stdout,
		}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// GetLogger returns a logger instance
func GetLogger() zerolog.Logger {
	return log.Logger
}

// WithComponent returns a logger with a component field
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
