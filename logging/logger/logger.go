// Package logger wraps logrus for revsearch commands.
//
// Diagnostics go to the configured output (stderr by default); user-facing
// command output never goes through the logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ncobase/revsearch/config"
	"github.com/sirupsen/logrus"
)

// Logger represents logger instance
type Logger struct {
	*logrus.Logger
	logFile *os.File
}

var (
	// stdLogger is the global logger
	stdLogger *Logger
	// once ensures that the logger is initialized only once
	once sync.Once
)

// StdLogger returns the single logger instance
func StdLogger() *Logger {
	once.Do(func() {
		stdLogger = newLogger()
	})
	return stdLogger
}

func newLogger() *Logger {
	l := &Logger{Logger: logrus.New()}
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	l.AddHook(newRedactHook())
	return l
}

// New builds a standalone logger from c. The returned cleanup closes the log
// file when output is "file".
func New(c *config.Logger) (*Logger, func(), error) {
	l := newLogger()
	cleanup, err := l.Init(c)
	if err != nil {
		return nil, nil, err
	}
	return l, cleanup, nil
}

// Init configures level, format and output of the logger.
func (l *Logger) Init(c *config.Logger) (func(), error) {
	noop := func() {}
	if c == nil {
		return noop, nil
	}

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	l.SetLevel(level)

	switch strings.ToLower(c.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: level < logrus.DebugLevel})
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Format)
	}

	switch strings.ToLower(c.Output) {
	case "", "stderr":
		l.SetOutput(os.Stderr)
	case "stdout":
		l.SetOutput(os.Stdout)
	case "discard":
		l.SetOutput(io.Discard)
	case "file":
		if c.OutputFile == "" {
			return nil, fmt.Errorf("logger.output_file is required for file output")
		}
		if err := l.openFile(c.OutputFile); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid log output %q", c.Output)
	}

	return func() {
		if l.logFile != nil {
			_ = l.logFile.Close()
			l.logFile = nil
		}
	}, nil
}

// openFile appends to path, creating parent directories.
func (l *Logger) openFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	l.logFile = f
	l.SetOutput(f)
	return nil
}
