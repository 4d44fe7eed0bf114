package logging

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

// FileConfig enables a rotated log file next to stdout output.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	currentLevel LogLevel
	levelOnce    sync.Once

	loggerMu sync.RWMutex
	sugar    *zap.SugaredLogger
)

// initLevel initializes the log level from environment variables
func initLevel() {
	levelOnce.Do(func() {
		currentLevel = parseLevel(os.Getenv("DEBUG"), os.Getenv("LOG_LEVEL"))
	})
}

// parseLevel resolves DEBUG (takes precedence) and LOG_LEVEL values.
func parseLevel(debug, level string) LogLevel {
	switch strings.ToLower(debug) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}

	switch strings.ToLower(level) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	initLevel()
	return currentLevel
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

func newLogger(fc FileConfig) *zap.SugaredLogger {
	level := zap.NewAtomicLevelAt(GetLevel().zapLevel())

	var consoleEncoder zapcore.Encoder
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		consoleEncoder = zapcore.NewJSONEncoder(encoderConfig())
	} else {
		consoleEncoder = zapcore.NewConsoleEncoder(encoderConfig())
	}
	core := zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout), level)

	if fc.Path != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   fc.Path,
			MaxSize:    fc.MaxSizeMB,
			MaxBackups: fc.MaxBackups,
			MaxAge:     fc.MaxAgeDays,
			Compress:   fc.Compress,
		})
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), fileWriter, level))
	}

	return zap.New(core).Sugar()
}

func logger() *zap.SugaredLogger {
	loggerMu.RLock()
	l := sugar
	loggerMu.RUnlock()
	if l != nil {
		return l
	}

	loggerMu.Lock()
	defer loggerMu.Unlock()
	if sugar == nil {
		sugar = newLogger(FileConfig{})
	}
	return sugar
}

// Configure rebuilds the process logger, adding rotated file output when fc.Path is set.
func Configure(fc FileConfig) {
	l := newLogger(fc)

	loggerMu.Lock()
	old := sugar
	sugar = l
	loggerMu.Unlock()

	if old != nil {
		_ = old.Sync()
	}
}

// Sync flushes buffered log entries.
func Sync() {
	_ = logger().Sync()
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) {
	if GetLevel() <= LevelDebug {
		logger().Debugf(format, args...)
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if GetLevel() <= LevelInfo {
		logger().Infof(format, args...)
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if GetLevel() <= LevelWarn {
		logger().Warnf(format, args...)
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if GetLevel() <= LevelError {
		logger().Errorf(format, args...)
	}
}

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	logger().Fatalf(format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("unknown(%d)", l)
	}
}
