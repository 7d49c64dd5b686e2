package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
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
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, defaulting to INFO
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Config holds logger configuration
type Config struct {
	Level      Level     // Minimum log level
	FilePath   string    // Path to log file, empty disables file output
	MaxSize    int64     // Max size in bytes before rotation (default: 10MB)
	MaxAge     int       // Max age in days (default: 7)
	MaxBackups int       // Max number of backup files (default: 5)
	Console    bool      // Mirror entries to stderr
	Output     io.Writer // Extra sink, used by tests
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Level:      INFO,
		FilePath:   filepath.Join(home, ".edugo", "logs", "edugo.log"),
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     7,
		MaxBackups: 5,
		Console:    false, // stderr would tear the TUI
	}
}

// sink is the shared output state of a logger and all loggers derived from it
type sink struct {
	mu     sync.Mutex
	config Config
	file   *os.File
}

// Logger writes leveled entries with preset fields
type Logger struct {
	sink   *sink
	fields []Field
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	s := &sink{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := s.open(); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if err := s.rotateIfNeeded(); err != nil {
			return nil, err
		}
	}

	return &Logger{sink: s}, nil
}

func (s *sink) open() error {
	file, err := os.OpenFile(s.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.file = file
	return nil
}

// rotateIfNeeded rotates when the file is over size or over age. Caller holds mu or owns s.
func (s *sink) rotateIfNeeded() error {
	if s.file == nil {
		return nil
	}

	info, err := s.file.Stat()
	if err != nil {
		return err
	}

	tooBig := s.config.MaxSize > 0 && info.Size() >= s.config.MaxSize
	tooOld := s.config.MaxAge > 0 && info.Size() > 0 &&
		time.Since(info.ModTime()) > time.Duration(s.config.MaxAge)*24*time.Hour
	if !tooBig && !tooOld {
		return nil
	}
	return s.rotate()
}

func (s *sink) rotate() error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
	}

	path := s.config.FilePath
	for i := s.config.MaxBackups - 1; i >= 1; i-- {
		_ = os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
	}
	if s.config.MaxBackups > 0 {
		if _, err := os.Stat(path); err == nil {
			if err := os.Rename(path, path+".1"); err != nil {
				return err
			}
		}
	} else {
		_ = os.Remove(path)
	}

	return s.open()
}

func (s *sink) write(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.rotateIfNeeded()

	if s.file != nil {
		_, _ = io.WriteString(s.file, entry)
	}
	if s.config.Console {
		_, _ = io.WriteString(os.Stderr, entry)
	}
	if s.config.Output != nil {
		_, _ = io.WriteString(s.config.Output, entry)
	}
}

// log formats one entry. skip is the number of frames above log to report as caller.
func (l *Logger) log(level Level, skip int, msg string, fields []Field) {
	if l == nil || level < l.sink.config.Level {
		return
	}

	caller := "???"
	if _, file, line, ok := runtime.Caller(skip); ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", time.Now().Format("2006-01-02 15:04:05.000"), level, caller, msg)

	if len(l.fields)+len(fields) > 0 {
		b.WriteString(" |")
		for _, f := range l.fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
		for _, f := range fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
	}
	b.WriteByte('\n')

	l.sink.write(b.String())
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	if l == nil {
		return nil
	}
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &Logger{sink: l.sink, fields: merged}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) { l.log(DEBUG, 2, msg, fields) }

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) { l.log(INFO, 2, msg, fields) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) { l.log(WARN, 2, msg, fields) }

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) { l.log(ERROR, 2, msg, fields) }

// Close closes the log file
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		err := l.sink.file.Close()
		l.sink.file = nil
		return err
	}
	return nil
}

// Global logger functions

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) { globalLogger.log(DEBUG, 2, msg, fields) }

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) { globalLogger.log(INFO, 2, msg, fields) }

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) { globalLogger.log(WARN, 2, msg, fields) }

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) { globalLogger.log(ERROR, 2, msg, fields) }

// WithFields creates a new logger with preset fields using the global logger
func WithFields(fields ...Field) *Logger {
	return globalLogger.WithFields(fields...)
}

// Close closes the global logger
func Close() error {
	return globalLogger.Close()
}

// GetConfig returns the current logger configuration
func GetConfig() Config {
	if globalLogger != nil {
		return globalLogger.sink.config
	}
	return DefaultConfig()
}
