package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type LogLevel int

// The level of visibility of the log output.
// ERROR is the lowest level, VERBOSE is the highest and it increases in the order that it is written.
const (
	ERROR LogLevel = iota
	WARN
	INFO
	DEBUG
	VERBOSE
)

var levelNames = []string{"ERROR", "WARN", "INFO", "DEBUG", "VERBOSE"}

func (l LogLevel) String() string {
	if l < ERROR || l > VERBOSE {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel returns the level with the given (case-insensitive) name.
func ParseLevel(name string) (LogLevel, error) {
	for i, n := range levelNames {
		if strings.EqualFold(n, name) {
			return LogLevel(i), nil
		}
	}
	return ERROR, errors.Errorf("invalid log level %q", name)
}

// Logger is exposed to the user and all logging is done through it.
// It handles its internal errors, so the user doesn't have to catch any.
// Logs are written to every sink the logger was created with.
type Logger struct {
	level     LogLevel
	formatter Formatter
	sinks     []Sink
	logWriter io.Writer
	mu        sync.Mutex
}

// NewLogger creates a Logger which writes to the given sinks.
func NewLogger(level LogLevel, sinks ...Sink) *Logger {
	writers := make([]io.Writer, len(sinks))
	for i, s := range sinks {
		writers[i] = s
	}
	return &Logger{
		level:     level,
		formatter: DefaultFormatter(),
		sinks:     sinks,
		logWriter: io.MultiWriter(writers...),
	}
}

// Discard returns a Logger which drops every message.
func Discard() *Logger {
	return NewLogger(ERROR, Console{io.Discard})
}

// Level returns the visibility level of the Logger.
func (l *Logger) Level() LogLevel {
	return l.level
}

// SetLevel sets the log visibility level of the Logger instance.
func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// Write formats the message and flushes it to the Sinks.
func (l *Logger) Write(level LogLevel, message string) error {
	formatted, err := l.formatter.Format(level.String(), message)
	if err != nil {
		return errors.Wrap(err, "format")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err = io.WriteString(l.logWriter, formatted); err != nil {
		return errors.Wrap(err, "write logs")
	}
	return nil
}

// Error prints out the error message passed to the Sinks.
func (l *Logger) Error(message string, args ...any) {
	l.log(ERROR, message, args...)
}

// Warn prints out the warning message passed to the Sinks.
func (l *Logger) Warn(message string, args ...any) {
	l.log(WARN, message, args...)
}

// Info prints out the information passed to the Sinks.
func (l *Logger) Info(message string, args ...any) {
	l.log(INFO, message, args...)
}

// Debug prints out the debug message passed to the Sinks.
func (l *Logger) Debug(message string, args ...any) {
	l.log(DEBUG, message, args...)
}

// Verbose prints out the message passed to the Sinks.
func (l *Logger) Verbose(message string, args ...any) {
	l.log(VERBOSE, message, args...)
}

// Close closes every sink of the Logger.
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sinks {
		if err := s.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close log sink: %s\n", err)
		}
	}
}

func (l *Logger) log(level LogLevel, message string, args ...any) {
	if l.level < level {
		return
	}
	if err := l.Write(level, fmt.Sprintf(message, args...)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed Log Write: %s\n", err)
		os.Exit(1)
	}
}
