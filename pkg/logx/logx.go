// Package logx is the process-wide structured logger.
// It fronts charmbracelet/log so callers never import the backend directly.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Fields are structured key/value pairs attached to a log line
type Fields map[string]any

// Logger is a leveled logger with attached fields
type Logger struct {
	l *log.Logger
}

var std = &Logger{l: newBackend(os.Stderr)}

func newBackend(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.InfoLevel,
	})
}

// SetOutput redirects the default logger, mostly for tests and the stdio MCP server
func SetOutput(w io.Writer) {
	lvl := std.l.GetLevel()
	std.l = newBackend(w)
	std.l.SetLevel(lvl)
}

// SetJSON switches the default logger to JSON lines
func SetJSON(enabled bool) {
	if enabled {
		std.l.SetFormatter(log.JSONFormatter)
		return
	}
	std.l.SetFormatter(log.TextFormatter)
}

func SetLevel(level Level) {
	switch level {
	case LevelDebug:
		std.l.SetLevel(log.DebugLevel)
	case LevelWarn:
		std.l.SetLevel(log.WarnLevel)
	case LevelError:
		std.l.SetLevel(log.ErrorLevel)
	default:
		std.l.SetLevel(log.InfoLevel)
	}
}

// ParseLevel converts "debug", "info", "warn" or "error" into a Level
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func WithFields(fields Fields) *Logger {
	return std.WithFields(fields)
}

func (lg *Logger) WithFields(fields Fields) *Logger {
	kv := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &Logger{l: lg.l.With(kv...)}
}

func (lg *Logger) Debug(msg string, kv ...any) { lg.l.Debug(msg, kv...) }
func (lg *Logger) Info(msg string, kv ...any)  { lg.l.Info(msg, kv...) }
func (lg *Logger) Warn(msg string, kv ...any)  { lg.l.Warn(msg, kv...) }
func (lg *Logger) Error(msg string, kv ...any) { lg.l.Error(msg, kv...) }

func (lg *Logger) Debugf(format string, args ...any) { lg.l.Debug(fmt.Sprintf(format, args...)) }
func (lg *Logger) Infof(format string, args ...any)  { lg.l.Info(fmt.Sprintf(format, args...)) }
func (lg *Logger) Warnf(format string, args ...any)  { lg.l.Warn(fmt.Sprintf(format, args...)) }
func (lg *Logger) Errorf(format string, args ...any) { lg.l.Error(fmt.Sprintf(format, args...)) }

func Debug(msg string, kv ...any) { std.l.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { std.l.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { std.l.Warn(msg, kv...) }
func Error(msg string, kv ...any) { std.l.Error(msg, kv...) }

func Debugf(format string, args ...any) { std.Debugf(format, args...) }
func Infof(format string, args ...any)  { std.Infof(format, args...) }
func Warnf(format string, args ...any)  { std.Warnf(format, args...) }
func Errorf(format string, args ...any) { std.Errorf(format, args...) }

func Fatal(msg string, kv ...any) {
	std.l.Error(msg, kv...)
	os.Exit(1)
}

func Fatalf(format string, args ...any) {
	std.Errorf(format, args...)
	os.Exit(1)
}
