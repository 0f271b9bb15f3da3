// Package log is the process-wide structured logger. Call sites pass a message
// followed by key/value pairs.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	charmlog "github.com/charmbracelet/log"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
	TimeFormat:      time.RFC3339,
	Level:           charmlog.InfoLevel,
})

// SetOutput redirects all subsequent log lines to w.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetLevel accepts debug, info, warn or error. An empty level leaves the
// current one in place.
func SetLevel(level string) error {
	if level == "" {
		return nil
	}
	parsed, err := charmlog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(parsed)
	return nil
}

// OpenFile appends log output to path. The TUI owns the terminal, so the
// interactive modes log to a file instead of stderr.
func OpenFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	SetOutput(file)
	return file, nil
}

func Debug(msg string, kv ...any) {
	logger.Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	logger.Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	logger.Warn(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	logger.Error(msg, extended...)
}
