package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	perrors "github.com/mlps/physlearn/pkg/errors"
)

// zlogger adapts a zerolog.Logger to Logger.
type zlogger struct {
	zl zerolog.Logger
}

// NewZerologLogger wraps zl.
func NewZerologLogger(zl zerolog.Logger) Logger {
	return &zlogger{zl: zl}
}

func (l *zlogger) Debug(msg string, fields ...any) { l.write(l.zl.Debug(), msg, fields) }
func (l *zlogger) Info(msg string, fields ...any)  { l.write(l.zl.Info(), msg, fields) }
func (l *zlogger) Warn(msg string, fields ...any)  { l.write(l.zl.Warn(), msg, fields) }
func (l *zlogger) Error(msg string, fields ...any) { l.write(l.zl.Error(), msg, fields) }

func (l *zlogger) With(fields ...any) Logger {
	if len(fields) == 0 {
		return l
	}
	return &zlogger{zl: l.zl.With().Fields(fieldMap(fields)).Logger()}
}

func (l *zlogger) Enabled(_ context.Context, level Level) bool {
	zlevel := toZerologLevel(level)
	return zlevel >= l.zl.GetLevel() && zlevel >= zerolog.GlobalLevel()
}

func (l *zlogger) write(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	if len(fields)%2 == 1 {
		if err, ok := fields[0].(error); ok {
			e = e.Stack().Err(err)
			fields = fields[1:]
		}
	}
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		switch v := fields[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case zerolog.LogObjectMarshaler:
			e = e.Object(key, v)
		case time.Duration:
			e = e.Float64(key, float64(v.Microseconds())/1000)
		default:
			e = e.Interface(key, v)
		}
	}
	e.Msg(msg)
}

func fieldMap(fields []any) map[string]interface{} {
	m := make(map[string]interface{}, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key := fmt.Sprint(fields[i])
		if err, ok := fields[i+1].(error); ok {
			m[key] = err.Error()
			continue
		}
		m[key] = fields[i+1]
	}
	return m
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, perrors.NewValidationError("log.level", "must be one of debug, info, warn, error", s)
	}
}

var (
	mu            sync.RWMutex
	defaultLogger Logger = NewZerologLogger(zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel))
)

// GetLogger returns the process-wide logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

// GetLoggerWithName returns the process-wide logger tagged with a component.
func GetLoggerWithName(name string) Logger {
	return GetLogger().With(ComponentKey, name)
}

// SetLogger replaces the process-wide logger.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = l
}

// SetupLogger configures the process-wide zerolog logger. format is "json"
// or "console". Warnings raised through pkg/errors.Warn are routed to the
// new logger at warn level.
func SetupLogger(level, format string, w io.Writer) (Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = os.Stderr
	}

	var out io.Writer
	switch strings.ToLower(format) {
	case "", "json":
		out = w
	case "console", "text":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return nil, perrors.NewValidationError("log.format", "must be json or console", format)
	}

	zl := zerolog.New(out).With().Timestamp().Logger().Level(toZerologLevel(lvl))
	logger := NewZerologLogger(zl)
	SetLogger(logger)
	perrors.SetZerologWarnFunc(WarningSink(zl))
	return logger, nil
}

func setGlobalLevel(level Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}
