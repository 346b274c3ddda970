package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// LogLevel defines the severity of the log
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
)

// LogFormat defines the output format of the log
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// Logger is the interface for logging repository operations and
// internal messages.
type Logger interface {
	SetLevel(level LogLevel)
	SetFormat(format LogFormat)
	SetOutput(w io.Writer)
	WithFields(fields map[string]any) Logger
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Op(op string, duration time.Duration, args ...any)
}

// stdLogger is the default implementation of Logger.
type stdLogger struct {
	mu     sync.Mutex
	level  LogLevel
	format LogFormat
	writer io.Writer
	fields map[string]any
}

// NewStdLogger creates a logger writing text to stdout at info level.
func NewStdLogger() Logger {
	return &stdLogger{
		level:  LogLevelInfo,
		format: LogFormatText,
		writer: os.Stdout,
		fields: map[string]any{},
	}
}

func (l *stdLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

func (l *stdLogger) SetFormat(format LogFormat) {
	l.mu.Lock()
	l.format = format
	l.mu.Unlock()
}

func (l *stdLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.writer = w
	l.mu.Unlock()
}

// WithFields returns a child logger whose lines carry the extra fields.
func (l *stdLogger) WithFields(fields map[string]any) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &stdLogger{
		level:  l.level,
		format: l.format,
		writer: l.writer,
		fields: merged,
	}
}

func (l *stdLogger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.emit("INFO", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Warn(format string, args ...any) {
	if l.level >= LogLevelWarn {
		l.emit("WARN", fmt.Sprintf(format, args...), nil)
	}
}

func (l *stdLogger) Error(format string, args ...any) {
	if l.level >= LogLevelError {
		l.emit("ERROR", fmt.Sprintf(format, args...), nil)
	}
}

// Op logs one repository operation with its duration and arguments.
func (l *stdLogger) Op(op string, duration time.Duration, args ...any) {
	if l.level < LogLevelInfo {
		return
	}
	if l.format == LogFormatJSON {
		l.emit("OP", "", map[string]any{
			"op":       op,
			"duration": duration.String(),
			"args":     fmt.Sprintf("%v", args),
		})
		return
	}
	msg := fmt.Sprintf("%s%s%s [%v] args: %v", opColor(op), op, ansiReset, duration, args)
	l.emit("OP", msg, nil)
}

func (l *stdLogger) emit(level, msg string, extra map[string]any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.format == LogFormatJSON {
		line := make(map[string]any, len(l.fields)+len(extra)+3)
		for k, v := range l.fields {
			line[k] = v
		}
		for k, v := range extra {
			line[k] = v
		}
		line["time"] = now.Format(time.RFC3339)
		line["level"] = level
		if msg != "" {
			line["msg"] = msg
		}
		json.NewEncoder(l.writer).Encode(line)
		return
	}

	fieldStr := ""
	if len(l.fields) > 0 {
		fieldStr = fmt.Sprintf(" fields: %v", l.fields)
	}
	fmt.Fprintf(l.writer, "[JREPO] %s %s: %s%s\n", now.Format("2006-01-02 15:04:05"), level, msg, fieldStr)
}

// opColor picks the ANSI color for an operation name; raising variants
// share their base operation's color.
func opColor(op string) string {
	base := strings.TrimSuffix(op, "!")
	switch base {
	case "insert", "update", "insert_or_update":
		return ansiGreen
	case "delete":
		return ansiRed
	case "one", "get", "all", "reload", "preload":
		return ansiYellow
	default:
		return ansiCyan
	}
}
