package logger

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var defaultLogger atomic.Pointer[zap.SugaredLogger]

// Init initializes the global logger
func Init(level string, json bool) {
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level.SetLevel(parseLevel(level))

	lgr, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(fmt.Errorf("build logger: %w", err))
	}

	zap.ReplaceGlobals(lgr)
	defaultLogger.Store(lgr.Sugar())
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Get returns the default logger, building a development one on first use
// if Init was never called.
func Get() *zap.SugaredLogger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	lgr, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		panic(fmt.Errorf("build logger: %w", err))
	}
	defaultLogger.CompareAndSwap(nil, lgr.Sugar())
	return defaultLogger.Load()
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Infow(msg, args...)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debugw(msg, args...)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warnw(msg, args...)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Errorw(msg, args...)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Errorw(msg, args...)
	_ = Get().Sync()
	os.Exit(1)
}

// With returns a logger with the given attributes
func With(args ...any) *zap.SugaredLogger {
	return Get().With(args...)
}

// Sync flushes buffered entries
func Sync() {
	_ = Get().Sync()
}
