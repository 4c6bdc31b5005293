// Package logger is the leveled logger shared by the parser, the CLIs and
// the HTTP server.
//
// Loggers derived with Named write to the same output at the same level as
// their root, so a command sets both once and each component tags its own
// lines:
//
//	12:04:05.120 WARN  hl7v2/parser: segment 4 (ZZZ) kept verbatim: ...
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

// Log levels.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

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
	case LevelNone:
		return "NONE"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel reads a level name as written in configuration files and on
// the command line.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "none", "off":
		return LevelNone, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Root is the name every logger's component path starts with.
const Root = "hl7v2"

// sink is the output and level shared by a root logger and its children.
type sink struct {
	mu     sync.Mutex
	level  Level
	output io.Writer
}

// Logger writes leveled lines tagged with a component name.
type Logger struct {
	sink *sink
	name string
}

var defaultLogger = New(os.Stderr, LevelInfo)

// Default returns the process-wide logger used when none is configured.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// New creates a root logger.
func New(output io.Writer, level Level) *Logger {
	return &Logger{sink: &sink{level: level, output: output}, name: Root}
}

// Named returns a logger for a component, sharing l's output and level.
func (l *Logger) Named(component string) *Logger {
	return &Logger{sink: l.sink, name: l.name + "/" + component}
}

// Name returns the component path written on every line.
func (l *Logger) Name() string {
	return l.name
}

// SetLevel sets the level for l and every logger sharing its output.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// Level returns the current level.
func (l *Logger) Level() Level {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

// SetOutput sets the output writer.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.output = w
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.enabled(level)
}

func (s *sink) enabled(level Level) bool {
	return s.level != LevelNone && level >= s.level
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if !l.sink.enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(l.sink.output, "%s %-5s %s: %s\n",
		time.Now().Format("15:04:05.000"), level, l.name, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, format, args...)
}

// Info logs an info message.
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}

// StdLogger returns a *log.Logger whose output is written through l at
// level, for APIs such as http.Server.ErrorLog.
func (l *Logger) StdLogger(level Level) *log.Logger {
	return log.New(lineWriter{l: l, level: level}, "", 0)
}

type lineWriter struct {
	l     *Logger
	level Level
}

func (w lineWriter) Write(p []byte) (int, error) {
	w.l.log(w.level, "%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}
