// Package logger provides logging for the convo-analyzer CLI.
// Messages go to two sinks: a console on stderr, quiet unless --verbose is
// set or the message is a warning, and an optional rotated JSON log file.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the sinks.
type Options struct {
	// Level gates the file sink. Accepts DEBUG, INFO, WARNING or ERROR.
	Level string

	// File is the log file path. Empty disables the file sink.
	File string

	// Console enables the stderr sink.
	Console bool

	// Verbose lowers the console sink to debug.
	Verbose bool
}

// Rotation limits for the log file.
const (
	maxLogSizeMB  = 10
	maxLogBackups = 3
	maxLogAgeDays = 28
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	opts              = Options{Level: "INFO", Console: true}
	rotator *lumberjack.Logger
	base    = build()
)

// Configure replaces the sinks. Safe to call more than once.
func Configure(o Options) error {
	if _, err := ParseLevel(o.Level); err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	opts = o
	verbose = o.Verbose
	base = build()
	return nil
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the console writer.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build()
}

// ParseLevel maps a level name to a zap level. WARNING is accepted as warn.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "INFO":
		return zapcore.InfoLevel, nil
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", name)
	}
}

// Debug logs a debug message. Shown on the console only in verbose mode.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Info logs an informational message.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn logs a warning.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error logs an error.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// With returns a child logger carrying structured fields, e.g. With("run_id", id).
func With(keysAndValues ...any) *zap.SugaredLogger {
	return current().With(keysAndValues...)
}

// Sync flushes buffered entries.
func Sync() error {
	err := current().Sync()
	if err != nil && isStdoutSyncError(err) {
		return nil
	}
	return err
}

// NewObserved routes every entry at or above level into an in-memory
// observer until restore is called.
func NewObserved(level zapcore.Level) (*observer.ObservedLogs, func()) {
	core, logs := observer.New(level)

	mu.Lock()
	previous := base
	base = zap.New(core).Sugar()
	mu.Unlock()

	return logs, func() {
		mu.Lock()
		defer mu.Unlock()
		base = previous
	}
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// build assembles the core tee. Callers hold mu.
func build() *zap.SugaredLogger {
	var cores []zapcore.Core

	if opts.Console || verbose {
		consoleLevel := zapcore.WarnLevel
		if verbose {
			consoleLevel = zapcore.DebugLevel
		}
		cores = append(cores, zapcore.NewCore(consoleEncoder(), zapcore.AddSync(output), consoleLevel))
	}

	if rotator != nil {
		_ = rotator.Close()
		rotator = nil
	}
	if opts.File != "" {
		level, _ := ParseLevel(opts.Level)
		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(fileEncoder(), zapcore.AddSync(rotator), level))
	}

	if len(cores) == 0 {
		return zap.NewNop().Sugar()
	}
	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

// consoleEncoder renders "[LEVEL] message" lines without timestamps.
func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = ""
	cfg.CallerKey = ""
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	}
	cfg.ConsoleSeparator = " "
	return zapcore.NewConsoleEncoder(cfg)
}

func fileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// isStdoutSyncError checks if error is harmless stdout/stderr sync error.
// On Linux, syncing stdout/stderr returns EINVAL or ENOTTY which are safe to ignore.
func isStdoutSyncError(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EINVAL || errno == syscall.ENOTTY
	}
	return false
}
