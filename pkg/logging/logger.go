package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls where log output goes
type Config struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	Structured bool   `yaml:"structured"`
	MaxSize    int    `yaml:"max_size" split_words:"true"`    // megabytes
	MaxBackups int    `yaml:"max_backups" split_words:"true"` // number of backups
	MaxAge     int    `yaml:"max_age" split_words:"true"`     // days
	Compress   bool   `yaml:"compress"`
}

// LogLevel represents logging levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLogLevel maps a config string to a level. Unknown names mean info.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Fields are key/value pairs attached to a log line.
type Fields map[string]interface{}

// Logger writes leveled lines tagged with a component name. It is safe for
// concurrent use; the rig engine, hub and socket server share one.
type Logger struct {
	level      LogLevel
	structured bool

	mu   sync.Mutex
	out  io.Writer
	file *lumberjack.Logger
	now  func() time.Time
}

// NewLogger builds a logger from cfg. Output goes to a rotating file when
// File is set, and to stdout when Console is set or no file is configured.
func NewLogger(cfg Config) (*Logger, error) {
	l := &Logger{
		level:      ParseLogLevel(cfg.Level),
		structured: cfg.Structured,
		now:        time.Now,
	}

	var writers []io.Writer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, l.file)
	}
	if cfg.Console || l.file == nil {
		writers = append(writers, os.Stdout)
	}

	l.out = io.MultiWriter(writers...)
	return l, nil
}

// NewWriterLogger returns a human-readable logger writing to w.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, out: w, now: time.Now}
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Enabled reports whether lines at level would be written.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.level
}

func (l *Logger) format(level LogLevel, component, message string, fields Fields) []byte {
	ts := l.now().Format("2006-01-02 15:04:05.000")

	if l.structured {
		line := make(map[string]interface{}, len(fields)+4)
		for k, v := range fields {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			line[k] = v
		}
		line["time"] = ts
		line["level"] = level.String()
		line["component"] = component
		line["message"] = message

		b, err := json.Marshal(line)
		if err != nil {
			b, _ = json.Marshal(map[string]string{
				"time": ts, "level": level.String(), "component": component,
				"message": message, "log_error": err.Error(),
			})
		}
		return append(b, '\n')
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] %s: %s", ts, level, component, message)
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%s=%v", k, fields[k])
		}
		sb.WriteByte(']')
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

func (l *Logger) log(level LogLevel, component, message string, fields Fields) {
	if !l.Enabled(level) {
		return
	}
	line := l.format(level, component, message, fields)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(line)
}

func first(fields []Fields) Fields {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

func (l *Logger) Debug(component, message string, fields ...Fields) {
	l.log(LevelDebug, component, message, first(fields))
}

func (l *Logger) Info(component, message string, fields ...Fields) {
	l.log(LevelInfo, component, message, first(fields))
}

func (l *Logger) Warn(component, message string, fields ...Fields) {
	l.log(LevelWarn, component, message, first(fields))
}

func (l *Logger) Error(component, message string, fields ...Fields) {
	l.log(LevelError, component, message, first(fields))
}

func (l *Logger) Debugf(component, format string, args ...interface{}) {
	l.logf(LevelDebug, component, nil, format, args)
}

func (l *Logger) Infof(component, format string, args ...interface{}) {
	l.logf(LevelInfo, component, nil, format, args)
}

func (l *Logger) Warnf(component, format string, args ...interface{}) {
	l.logf(LevelWarn, component, nil, format, args)
}

func (l *Logger) Errorf(component, format string, args ...interface{}) {
	l.logf(LevelError, component, nil, format, args)
}

// logf skips formatting when the level is filtered; poll loops log at
// debug every cycle.
func (l *Logger) logf(level LogLevel, component string, fields Fields, format string, args []interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.log(level, component, fmt.Sprintf(format, args...), fields)
}

// WithFields returns an Entry that adds fields to every line.
func (l *Logger) WithFields(fields Fields) *Entry {
	return &Entry{logger: l, fields: fields}
}

// Entry is a Logger bound to a fixed set of fields, for example the
// profile a connection was opened with.
type Entry struct {
	logger *Logger
	fields Fields
}

// WithField returns a copy of e with key set.
func (e *Entry) WithField(key string, value interface{}) *Entry {
	merged := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		merged[k] = v
	}
	merged[key] = value
	return &Entry{logger: e.logger, fields: merged}
}

func (e *Entry) Debug(component, message string) {
	e.logger.log(LevelDebug, component, message, e.fields)
}

func (e *Entry) Info(component, message string) {
	e.logger.log(LevelInfo, component, message, e.fields)
}

func (e *Entry) Warn(component, message string) {
	e.logger.log(LevelWarn, component, message, e.fields)
}

func (e *Entry) Error(component, message string) {
	e.logger.log(LevelError, component, message, e.fields)
}

func (e *Entry) Debugf(component, format string, args ...interface{}) {
	e.logger.logf(LevelDebug, component, e.fields, format, args)
}

func (e *Entry) Infof(component, format string, args ...interface{}) {
	e.logger.logf(LevelInfo, component, e.fields, format, args)
}

func (e *Entry) Warnf(component, format string, args ...interface{}) {
	e.logger.logf(LevelWarn, component, e.fields, format, args)
}

func (e *Entry) Errorf(component, format string, args ...interface{}) {
	e.logger.logf(LevelError, component, e.fields, format, args)
}

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
)

// InitGlobalLogger builds the process-wide logger from cfg.
func InitGlobalLogger(cfg Config) error {
	logger, err := NewLogger(cfg)
	if err != nil {
		return err
	}
	SetGlobalLogger(logger)
	return nil
}

// GetGlobalLogger returns the process-wide logger, falling back to info
// level on stdout if none was set.
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewWriterLogger(LevelInfo, os.Stdout)
	}
	return globalLogger
}

func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

func CloseGlobalLogger() error {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l.Close()
	}
	return nil
}

func Debug(component, message string, fields ...Fields) {
	GetGlobalLogger().Debug(component, message, fields...)
}

func Info(component, message string, fields ...Fields) {
	GetGlobalLogger().Info(component, message, fields...)
}

func Warn(component, message string, fields ...Fields) {
	GetGlobalLogger().Warn(component, message, fields...)
}

func Error(component, message string, fields ...Fields) {
	GetGlobalLogger().Error(component, message, fields...)
}

func Debugf(component, format string, args ...interface{}) {
	GetGlobalLogger().Debugf(component, format, args...)
}

func Infof(component, format string, args ...interface{}) {
	GetGlobalLogger().Infof(component, format, args...)
}

func Warnf(component, format string, args ...interface{}) {
	GetGlobalLogger().Warnf(component, format, args...)
}

func Errorf(component, format string, args ...interface{}) {
	GetGlobalLogger().Errorf(component, format, args...)
}
