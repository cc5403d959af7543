// Package logging configures structured logging for inkwell.
//
// Log records go to a size-rotated file under the cache directory and,
// when stderr is an interactive terminal, additionally to stderr in text
// form. Non-interactive stderr gets JSON so log shippers can parse it.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty means no file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation (default: 10).
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep (default: 5).
	MaxFiles int
	// WriteToStderr whether to also write to stderr (default: true).
	WriteToStderr bool
}

// DefaultConfig returns sensible defaults for file logging rooted at the
// given cache directory.
func DefaultConfig(cacheDir string) Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(cacheDir),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// Setup initializes logging and returns the logger plus a cleanup function
// that flushes and closes the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var fileWriter *RotatingWriter
	var output io.Writer
	if cfg.FilePath != "" {
		w, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		fileWriter = w
		output = w
	}

	var handler slog.Handler
	switch {
	case output != nil && cfg.WriteToStderr:
		if isatty.IsTerminal(os.Stderr.Fd()) {
			// Interactive: human-readable stderr, JSON file.
			handler = newTeeHandler(
				slog.NewTextHandler(os.Stderr, opts),
				slog.NewJSONHandler(output, opts),
			)
		} else {
			handler = slog.NewJSONHandler(io.MultiWriter(output, os.Stderr), opts)
		}
	case output != nil:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	cleanup := func() {
		if fileWriter != nil {
			_ = fileWriter.Sync()
			_ = fileWriter.Close()
		}
	}

	return logger, cleanup, nil
}

// SetupDefault sets up logging and installs it as the default slog logger.
// Returns the cleanup function.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	return cleanup, nil
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
