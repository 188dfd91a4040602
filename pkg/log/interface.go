// Package log provides the structured logging used across physlearn.
//
// The Logger interface mirrors log/slog so that callers can pass key/value
// pairs; the default implementation writes through zerolog. Attribute keys
// for ML operations live in attributes.go.
//
//	logger := log.GetLoggerWithName("ensemble").With(log.ModelNameKey, "GradientBoostingClassifier")
//	logger.Info("fit complete",
//	    log.SamplesKey, 1000,
//	    log.StageKey, 200,
//	)
package log

import (
	"context"
)

// Logger is a slog-compatible structured logger.
//
// If the first field passed to Error or Warn is an error value it is
// attached as the record's error, including its stack trace when it carries
// one. Remaining fields are key/value pairs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a Logger that adds fields to every record.
	With(fields ...any) Logger

	// Enabled reports whether records at level would be written.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog-compatible values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates loggers. Workflow packages hold a provider so
// tests can substitute a TestLoggerProvider.
type LoggerProvider interface {
	GetLogger() Logger
	GetLoggerWithName(name string) Logger
	SetLevel(level Level)
}
