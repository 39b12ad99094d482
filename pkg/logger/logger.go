package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level is the severity of a log message
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

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
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseLevel converts a level name such as "debug" or "WARN" into a Level.
// Unknown names fall back to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// minLevel is shared by every logger so that one LOG_LEVEL setting applies process-wide
var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetLevel sets the minimum level written by all loggers
func SetLevel(l Level) {
	minLevel.Store(int32(l))
}

// Logger is a wrapper around the standard library logger
type Logger struct {
	*log.Logger
	component string
	now       func() time.Time
}

// New creates a new logger scoped to the given component
func New(component string) *Logger {
	return NewWithWriter(os.Stdout, component)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, component string) *Logger {
	return &Logger{
		Logger:    log.New(w, "", 0),
		component: component,
		now:       time.Now,
	}
}

// With returns a logger for a sub-component, e.g. "telegram" -> "telegram/1234"
func (l *Logger) With(sub string) *Logger {
	component := sub
	if l.component != "" {
		component = l.component + "/" + sub
	}
	return &Logger{Logger: l.Logger, component: component, now: l.now}
}

// formatMessage formats a log message with timestamp and component
func (l *Logger) formatMessage(level Level, format string, v ...interface{}) string {
	timestamp := l.now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.component != "" {
		return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, level, l.component, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)
}

func (l *Logger) write(level Level, format string, v ...interface{}) {
	if int32(level) < minLevel.Load() {
		return
	}
	l.Logger.Println(l.formatMessage(level, format, v...))
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.write(LevelInfo, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.write(LevelError, format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.write(LevelDebug, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.write(LevelWarn, format, v...)
}

// Global logger instance for application-wide logging
var Global = New("")

// SetGlobal sets the global logger
func SetGlobal(logger *Logger) {
	Global = logger
}
