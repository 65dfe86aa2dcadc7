// Package logging provides the leveled diagnostic logger used by skein.
// Output goes to stderr so it never interleaves with entry output on stdout.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// LevelNames lists the accepted spellings for ParseLevel, lowest first.
var LevelNames = []string{"debug", "info", "warn", "error"}

// String returns the string representation of the level.
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

// ParseLevel converts a config value such as "warn" into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is the interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// WithField returns a new logger with the given field added.
	WithField(key string, value any) Logger

	// WithFields returns a new logger with the given fields added.
	WithFields(fields map[string]any) Logger

	SetLevel(level Level)
	SetOutput(w io.Writer)
}

var (
	defaultLogger Logger = New()
	defaultMu     sync.RWMutex
)

// Default returns the process-wide logger configured by the CLI.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }

// stdLogger implements Logger on top of the standard library log package.
type stdLogger struct {
	logger *log.Logger
	level  Level
	fields map[string]any
	mu     sync.RWMutex
}

// New creates a logger writing to stderr at info level.
func New() Logger {
	return NewWithOutput(os.Stderr)
}

// NewWithOutput creates a logger writing to w at info level.
func NewWithOutput(w io.Writer) Logger {
	return &stdLogger{
		logger: log.New(w, "", log.LstdFlags),
		level:  LevelInfo,
		fields: make(map[string]any),
	}
}

func (l *stdLogger) shouldLog(level Level) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

func (l *stdLogger) log(level Level, msg string, args ...any) {
	if !l.shouldLog(level) {
		return
	}

	formatted := msg
	if len(args) > 0 {
		formatted = fmt.Sprintf(msg, args...)
	}

	l.mu.RLock()
	fields := l.formatFields()
	l.mu.RUnlock()

	if fields != "" {
		l.logger.Printf("[%s] %s [%s]", level, formatted, fields)
	} else {
		l.logger.Printf("[%s] %s", level, formatted)
	}
}

// formatFields renders fields sorted by key. Caller holds l.mu.
func (l *stdLogger) formatFields() string {
	if len(l.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, l.fields[k])
	}
	return b.String()
}

func (l *stdLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *stdLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *stdLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *stdLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }

func (l *stdLogger) WithField(key string, value any) Logger {
	return l.WithFields(map[string]any{key: value})
}

func (l *stdLogger) WithFields(fields map[string]any) Logger {
	l.mu.RLock()
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	level := l.level
	l.mu.RUnlock()

	for k, v := range fields {
		merged[k] = v
	}

	return &stdLogger{
		logger: l.logger,
		level:  level,
		fields: merged,
	}
}

func (l *stdLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *stdLogger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// NopLogger discards all output.
type NopLogger struct{}

func (NopLogger) Debug(msg string, args ...any)             {}
func (NopLogger) Info(msg string, args ...any)              {}
func (NopLogger) Warn(msg string, args ...any)              {}
func (NopLogger) Error(msg string, args ...any)             {}
func (n NopLogger) WithField(key string, value any) Logger  { return n }
func (n NopLogger) WithFields(fields map[string]any) Logger { return n }
func (NopLogger) SetLevel(level Level)                      {}
func (NopLogger) SetOutput(w io.Writer)                     {}
