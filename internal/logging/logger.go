// Package logging provides the lightweight diagnostic logger the
// region engine and provider facade use to report allocation and
// corruption events. A nil *Logger is always safe to call methods on:
// every method no-ops when the receiver is nil, so callers that don't
// care about diagnostics never have to construct one.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where diagnostic output goes and how it rotates.
// Mirrors the options exposed by gopkg.in/natefinch/lumberjack.v2.
type Config struct {
	Enabled    bool
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Logger is a minimal leveled logger backed by the standard library's
// log.Logger, optionally tee'd into a rotating file via lumberjack.
// Each Logger carries a random trace ID, stamped onto every line it
// writes, so log lines from concurrent callers sharing one process
// (several Providers, several Regions) can still be told apart.
type Logger struct {
	*log.Logger
	file    *lumberjack.Logger
	traceID string
	mu      sync.Mutex
}

// New returns a Logger that writes to stderr only.
func New() *Logger {
	return &Logger{
		Logger:  log.New(os.Stderr, "", log.LstdFlags),
		traceID: uuid.NewString(),
	}
}

// NewWithConfig returns a Logger that writes to stderr and, if cfg
// enables it, to a rotating log file.
func NewWithConfig(cfg Config) *Logger {
	writers := []io.Writer{os.Stderr}

	var file *lumberjack.Logger
	if cfg.Enabled && cfg.FilePath != "" {
		file = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, file)
	}

	return &Logger{
		Logger:  log.New(io.MultiWriter(writers...), "", log.LstdFlags),
		file:    file,
		traceID: uuid.NewString(),
	}
}

// TraceID returns the logger's random identifier, stamped on every
// line it writes.
func (l *Logger) TraceID() string {
	if l == nil {
		return ""
	}
	return l.traceID
}

func (l *Logger) logf(level, format string, args ...any) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Printf("[%s] [%s] %s", level, l.traceID, fmt.Sprintf(format, args...))
}

// Info logs a routine diagnostic event (allocation, header flush).
func (l *Logger) Info(format string, args ...any) { l.logf("INFO", format, args...) }

// Warn logs a recoverable anomaly (e.g. a corrupt-looking but
// readable header entry).
func (l *Logger) Warn(format string, args ...any) { l.logf("WARN", format, args...) }

// Error logs an operation that failed and was surfaced to the caller.
func (l *Logger) Error(format string, args ...any) { l.logf("ERROR", format, args...) }

// Close closes the rotating file writer, if one is configured.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
