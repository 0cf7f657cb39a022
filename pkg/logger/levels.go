package logger

import (
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
)

// LogLevel is a human-readable severity name, matching the casing used in
// configuration files and CLI flags (e.g. "Debug", "Info").
type LogLevel string

const (
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
	LogLevelOff     LogLevel = "Off"
)

// ParseLogLevel parses a level name as it would appear in config or on the
// command line. An empty string defaults to Info. Casing must match exactly;
// this intentionally rejects "debug" or "DEBUG" to catch config typos early.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "":
		return LogLevelInfo, nil
	case string(LogLevelTrace), string(LogLevelDebug), string(LogLevelInfo),
		string(LogLevelWarning), string(LogLevelOff):
		return LogLevel(s), nil
	default:
		return "", errors.Newf("invalid log level %q (want one of Trace, Debug, Info, Warning, Off)", s)
	}
}

func (l LogLevel) charm() charmlog.Level {
	switch l {
	case LogLevelTrace:
		return charmlog.DebugLevel - 1
	case LogLevelDebug:
		return charmlog.DebugLevel
	case LogLevelWarning:
		return charmlog.WarnLevel
	case LogLevelOff:
		return charmlog.FatalLevel + 1
	default:
		return charmlog.InfoLevel
	}
}

func (l LogLevel) String() string {
	return strings.TrimSpace(string(l))
}
