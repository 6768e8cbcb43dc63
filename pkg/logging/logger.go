package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents log level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// TimestampFormat is the layout of the leading timestamp on every line.
const TimestampFormat = "2006-01-02 15:04:05"

// Logger writes leveled lines of the form
//
//	2006-01-02 15:04:05 [INFO] message key=value
//
// A file logger opens, appends and closes its file for every record, so the
// CLI and the monitor process can share one log file without coordination.
type Logger struct {
	level  Level
	path   string
	output io.Writer
	fields map[string]interface{}
	now    func() time.Time
	mu     *sync.Mutex
}

// NewLogger creates a logger that writes to w
func NewLogger(level Level, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}
	return &Logger{
		level:  level,
		output: w,
		fields: make(map[string]interface{}),
		now:    time.Now,
		mu:     &sync.Mutex{},
	}
}

// NewFileLogger creates a logger appending to path. The parent directory is
// created if needed and the file is probed once so misconfiguration surfaces
// at startup rather than on the first record.
func NewFileLogger(path string, level Level) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", filepath.Dir(path), err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	f.Close()

	return &Logger{
		level:  level,
		path:   path,
		fields: make(map[string]interface{}),
		now:    time.Now,
		mu:     &sync.Mutex{},
	}, nil
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewLogger(FATAL+1, io.Discard)
}

// Path returns the log file path, or "" for writer-backed loggers
func (l *Logger) Path() string {
	return l.path
}

// SetClock overrides the timestamp source
func (l *Logger) SetClock(now func() time.Time) {
	l.now = now
}

// log writes a log entry
func (l *Logger) log(level Level, message string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	mergedFields := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		mergedFields[k] = v
	}
	for k, v := range fields {
		mergedFields[k] = v
	}

	line := formatLine(l.now(), level, message, mergedFields)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path != "" {
		if err := appendLine(l.path, line); err != nil {
			fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		}
	}
	if l.output != nil {
		io.WriteString(l.output, line)
	}

	if level == FATAL {
		os.Exit(1)
	}
}

func formatLine(ts time.Time, level Level, message string, fields map[string]interface{}) string {
	var b strings.Builder
	b.WriteString(ts.Format(TimestampFormat))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(message)

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, fields[k])
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Debug logs a debug message
func (l *Logger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DEBUG, message, first(fields))
}

// Info logs an info message
func (l *Logger) Info(message string, fields ...map[string]interface{}) {
	l.log(INFO, message, first(fields))
}

// Warn logs a warning message
func (l *Logger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WARN, message, first(fields))
}

// Error logs an error message
func (l *Logger) Error(message string, fields ...map[string]interface{}) {
	l.log(ERROR, message, first(fields))
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(message string, fields ...map[string]interface{}) {
	l.log(FATAL, message, first(fields))
}

func first(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// WithField adds a field to the logger context
func (l *Logger) WithField(key string, value interface{}) *Logger {
	// Copy fields to avoid mutation
	newFields := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		newFields[k] = v
	}
	newFields[key] = value
	return &Logger{
		level:  l.level,
		path:   l.path,
		output: l.output,
		fields: newFields,
		now:    l.now,
		mu:     l.mu,
	}
}

// ParseLevel parses a log level string
func ParseLevel(level string) Level {
	switch level {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	case "FATAL", "fatal":
		return FATAL
	default:
		return INFO
	}
}
