// Package logging builds the application's zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for the log file.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 14
)

// Options configures the logger.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// File, when set, receives a rotated JSON copy of every entry.
	File string
	// Console overrides the console destination. Defaults to stderr.
	Console io.Writer
}

// Logger is a configured logger plus the file it may hold open.
type Logger struct {
	zerolog.Logger
	file io.Closer
}

// New creates a logger. A TTY gets the human-readable console writer,
// anything else gets JSON. A log file that cannot be opened is reported
// but the console logger is still returned.
func New(options Options) (*Logger, error) {
	level, err := selectLevel(options)
	if err != nil {
		return nil, err
	}

	console := selectOutput(options.Console)
	result := &Logger{}

	writer := console
	var fileErr error
	if options.File != "" {
		rotating, err := openFile(options.File)
		if err != nil {
			fileErr = err
		} else {
			result.file = rotating
			writer = zerolog.MultiLevelWriter(console, rotating)
		}
	}

	result.Logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	log.Logger = result.Logger
	return result, fileErr
}

// Close closes the log file, if any.
func (logger *Logger) Close() error {
	if logger == nil || logger.file == nil {
		return nil
	}
	err := logger.file.Close()
	logger.file = nil
	return err
}

func selectLevel(options Options) (zerolog.Level, error) {
	if options.Verbose {
		return zerolog.DebugLevel, nil
	}
	if strings.TrimSpace(options.Level) == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(options.Level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", options.Level, err)
	}
	return level, nil
}

func selectOutput(override io.Writer) io.Writer {
	if override != nil {
		return override
	}
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stderr
}

func openFile(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}, nil
}
