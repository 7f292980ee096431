// Package logging provides simple leveled logging for the core.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger wraps stdlib log with level support and a small amount of
// structured context (ipcp id, flow port id, request tag).
type Logger struct {
	logger  *log.Logger
	level   LogLevel
	format  string
	noColor bool
	mu      sync.Mutex

	fields []any // flattened key/value pairs carried by With*
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Config holds logging configuration.
type Config struct {
	Level   LogLevel
	Format  string // "text" (default) or "json"
	Output  io.Writer
	Sync    bool // present for API parity; logging is always synchronous
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// NewLogger creates a new logger.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}
	format := config.Format
	if format == "" {
		format = "text"
	}
	return &Logger{
		logger:  log.New(output, "", log.LstdFlags),
		level:   config.Level,
		format:  format,
		noColor: config.NoColor,
	}
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

// with returns a copy of the logger carrying additional context fields.
func (l *Logger) with(kv ...any) *Logger {
	cp := &Logger{
		logger:  l.logger,
		level:   l.level,
		format:  l.format,
		noColor: l.noColor,
		fields:  append(append([]any{}, l.fields...), kv...),
	}
	return cp
}

// With returns a logger tagged with arbitrary key/value pairs, for
// callers that don't fit one of the named With* helpers below (e.g.
// tagging a logger with a component name).
func (l *Logger) With(kv ...any) *Logger {
	return l.with(kv...)
}

// WithIPCP returns a logger tagged with an IPCP id.
func (l *Logger) WithIPCP(ipcpID uint16) *Logger {
	return l.with("ipcp_id", ipcpID)
}

// WithFlow returns a logger tagged with a flow port id.
func (l *Logger) WithFlow(portID uint32) *Logger {
	return l.with("port_id", portID)
}

// WithDevice is kept for naming parity with device-oriented callers
// (a "device" here is a control device file descriptor, not a block device).
func (l *Logger) WithDevice(deviceID uint32) *Logger {
	return l.with("device_id", deviceID)
}

// WithQueue tags a logger with a queue/worker index.
func (l *Logger) WithQueue(queueID int) *Logger {
	return l.with("queue_id", queueID)
}

// WithRequest tags a logger with a request tag and operation name.
func (l *Logger) WithRequest(tag uint32, op string) *Logger {
	return l.with("tag", tag, "op", op)
}

// WithError tags a logger with an error value.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.with("error", err.Error())
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var result string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			if result != "" {
				result += " "
			}
			result += fmt.Sprintf("%v=%v", args[i], args[i+1])
		}
	}
	if result != "" {
		return " " + result
	}
	return ""
}

func (l *Logger) log(level LogLevel, prefix, msg string, args ...any) {
	if level < l.level {
		return
	}
	all := append(append([]any{}, l.fields...), args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.format == "json" {
		l.logger.Printf(`{"level":%q,"msg":%q%s}`, prefix, msg, jsonFields(all))
		return
	}
	l.logger.Printf("%s %s%s", prefix, msg, formatArgs(all))
}

func jsonFields(args []any) string {
	var out string
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			out += fmt.Sprintf(",%q:%q", fmt.Sprintf("%v", args[i]), fmt.Sprintf("%v", args[i+1]))
		}
	}
	return out
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, "DEBUG", msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, "INFO", msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, "WARN", msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, "ERROR", msg, args...) }

// Debugf, Infof, Warnf, Errorf are printf-style variants.
func (l *Logger) Debugf(format string, args ...any) {
	l.log(LevelDebug, "DEBUG", fmt.Sprintf(format, args...))
}
func (l *Logger) Infof(format string, args ...any) {
	l.log(LevelInfo, "INFO", fmt.Sprintf(format, args...))
}
func (l *Logger) Warnf(format string, args ...any) {
	l.log(LevelWarn, "WARN", fmt.Sprintf(format, args...))
}
func (l *Logger) Errorf(format string, args ...any) {
	l.log(LevelError, "ERROR", fmt.Sprintf(format, args...))
}

// Global convenience functions.

func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }
