// Package logging provides the leveled diagnostic sink used by the compiler
// pipeline.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

// String returns the string representation of a log level
func (l LogLevel) String() string {
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

// ParseLevel converts a level name to a LogLevel. Unknown names map to WARN,
// the compiler's default verbosity.
func ParseLevel(name string) LogLevel {
	switch name {
	case "debug", "DEBUG":
		return DEBUG
	case "info", "INFO":
		return INFO
	case "warn", "WARN":
		return WARN
	case "error", "ERROR":
		return ERROR
	case "fatal", "FATAL":
		return FATAL
	default:
		return WARN
	}
}

// LogFormat represents the output format for logs
type LogFormat int

const (
	// TextFormat outputs human-readable text logs
	TextFormat LogFormat = iota
	// JSONFormat outputs structured JSON logs
	JSONFormat
)

// LogEntry represents a single log entry with all metadata
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	BuildID   string                 `json:"build_id,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	// MinLevel is the minimum level to log (zero value: DEBUG)
	MinLevel LogLevel
	// Format is the output format (default: TextFormat)
	Format LogFormat
	// Output is the writer logs are sent to (default: os.Stderr)
	Output io.Writer
}

// Logger is the main logging instance. Writes are synchronous; the compiler
// is single-threaded and a buffered sink would only reorder diagnostics.
type Logger struct {
	config  LoggerConfig
	buildID string
	mu      sync.Mutex
}

// NewLogger creates a logger with the given configuration. Each logger is
// stamped with a fresh build ID so one compilation's diagnostics can be
// correlated across stages.
func NewLogger(config LoggerConfig) *Logger {
	if config.Output == nil {
		config.Output = os.Stderr
	}
	return &Logger{
		config:  config,
		buildID: NewBuildID(),
	}
}

// NewBuildID returns a unique identifier for a single compiler invocation.
func NewBuildID() string {
	return uuid.New().String()
}

// BuildID returns the identifier stamped on this logger's entries.
func (l *Logger) BuildID() string {
	return l.buildID
}

// MinLevel returns the configured minimum level.
func (l *Logger) MinLevel() LogLevel {
	return l.config.MinLevel
}

func (l *Logger) log(level LogLevel, msg string, fields map[string]interface{}) {
	if level < l.config.MinLevel {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level.String(),
		Message:   msg,
		BuildID:   l.buildID,
		Fields:    fields,
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.config.Format {
	case JSONFormat:
		data, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.config.Output, "[ERROR] failed to marshal log entry: %v\n", err)
			return
		}
		fmt.Fprintf(l.config.Output, "%s\n", data)
	default:
		fmt.Fprint(l.config.Output, l.formatTextLog(entry))
	}
}

func (l *Logger) formatTextLog(entry *LogEntry) string {
	line := fmt.Sprintf("[%s] %s %s", entry.Level, entry.Timestamp.Format("15:04:05.000"), entry.Message)
	for key, value := range entry.Fields {
		line += fmt.Sprintf(" %s=%v", key, value)
	}
	return line + "\n"
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string) {
	l.log(DEBUG, msg, nil)
}

// Debugf logs a formatted message at DEBUG level
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string) {
	l.log(INFO, msg, nil)
}

// Infof logs a formatted message at INFO level
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string) {
	l.log(WARN, msg, nil)
}

// Warnf logs a formatted message at WARN level
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, args...), nil)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string) {
	l.log(ERROR, msg, nil)
}

// Errorf logs a formatted message at ERROR level
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...), nil)
}

// Fatal logs a message at FATAL level. Exiting is left to the caller.
func (l *Logger) Fatal(msg string) {
	l.log(FATAL, msg, nil)
}

// WithFields returns a contextual logger that attaches the given fields to
// every entry.
func (l *Logger) WithFields(fields map[string]interface{}) *ContextLogger {
	return &ContextLogger{logger: l, fields: fields}
}

// ContextLogger wraps a Logger with a fixed set of fields.
type ContextLogger struct {
	logger *Logger
	fields map[string]interface{}
}

// WithField returns a new ContextLogger with an additional field.
func (cl *ContextLogger) WithField(key string, value interface{}) *ContextLogger {
	merged := make(map[string]interface{}, len(cl.fields)+1)
	for k, v := range cl.fields {
		merged[k] = v
	}
	merged[key] = value
	return &ContextLogger{logger: cl.logger, fields: merged}
}

// Debug logs a message at DEBUG level with the attached fields
func (cl *ContextLogger) Debug(msg string) {
	cl.logger.log(DEBUG, msg, cl.fields)
}

// Info logs a message at INFO level with the attached fields
func (cl *ContextLogger) Info(msg string) {
	cl.logger.log(INFO, msg, cl.fields)
}

// Warn logs a message at WARN level with the attached fields
func (cl *ContextLogger) Warn(msg string) {
	cl.logger.log(WARN, msg, cl.fields)
}

// Error logs a message at ERROR level with the attached fields
func (cl *ContextLogger) Error(msg string) {
	cl.logger.log(ERROR, msg, cl.fields)
}

// Discard returns a logger that drops everything. Used by tests and by
// pipeline stages when no sink was configured.
func Discard() *Logger {
	return NewLogger(LoggerConfig{MinLevel: FATAL + 1, Output: io.Discard})
}
