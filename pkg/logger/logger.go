// Package logger wraps charmbracelet/log with the level vocabulary and
// lazy-initialized default instance used across the lsmcp core.
package logger

import (
	"io"
	"os"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

// Logger is a leveled, structured logger. The zero value is not usable;
// construct one with New or InitializeLogger.
type Logger struct {
	LogLevel LogLevel
	File     string

	mu    sync.Mutex
	charm *charmlog.Logger
}

// New returns a Logger writing to stderr at Info level, the default used
// when no configuration has been loaded yet.
func New() *Logger {
	l := &Logger{
		LogLevel: LogLevelInfo,
		charm:    charmlog.NewWithOptions(os.Stderr, charmlog.Options{ReportTimestamp: true}),
	}
	l.charm.SetLevel(l.LogLevel.charm())
	return l
}

// InitializeLogger builds a Logger at the given level, writing to file
// (use "/dev/stderr" or "/dev/stdout" for the standard streams).
func InitializeLogger(level LogLevel, file string) (*Logger, error) {
	var w io.Writer = os.Stderr
	if file != "" && file != "/dev/stderr" {
		if file == "/dev/stdout" {
			w = os.Stdout
		} else {
			f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, err
			}
			w = f
		}
	}

	l := &Logger{
		LogLevel: level,
		File:     file,
		charm:    charmlog.NewWithOptions(w, charmlog.Options{ReportTimestamp: true}),
	}
	l.charm.SetLevel(level.charm())
	return l, nil
}

// SetOutput redirects subsequent log lines; used by tests to capture output.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.charm.SetOutput(w)
}

// SetLevel adjusts the minimum severity emitted.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.LogLevel = level
	l.charm.SetLevel(level.charm())
}

func (l *Logger) Trace(msg string, kv ...any) { l.charm.Debug(msg, kv...) }
func (l *Logger) Debug(msg string, kv ...any) { l.charm.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.charm.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.charm.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.charm.Error(msg, kv...) }

func (l *Logger) Tracef(format string, args ...any) { l.charm.Debugf(format, args...) }
func (l *Logger) Debugf(format string, args ...any) { l.charm.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.charm.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.charm.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.charm.Errorf(format, args...) }

// With returns a Logger that prepends the given key/value pairs to every
// subsequent line, without mutating the receiver.
func (l *Logger) With(kv ...any) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{
		LogLevel: l.LogLevel,
		File:     l.File,
		charm:    l.charm.With(kv...),
	}
}

var (
	defaultMu  sync.Mutex
	defaultLog *Logger
)

func defaultLogger() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLog == nil {
		defaultLog = New()
	}
	return defaultLog
}

// SetDefault replaces the package-level logger used by the Debug/Info/Warn/
// Error free functions below.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLog = l
}

func Trace(msg string, kv ...any) { defaultLogger().Trace(msg, kv...) }
func Debug(msg string, kv ...any) { defaultLogger().Debug(msg, kv...) }
func Info(msg string, kv ...any)  { defaultLogger().Info(msg, kv...) }
func Warn(msg string, kv ...any)  { defaultLogger().Warn(msg, kv...) }
func Error(msg string, kv ...any) { defaultLogger().Error(msg, kv...) }
