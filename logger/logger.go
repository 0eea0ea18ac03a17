// Package logger holds the process-wide zap logger.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu sync.RWMutex
	// base is nil until Initialize runs; callers then get a no-op logger.
	base *zap.Logger
)

// Initialize sets up the logger with the specified log level
func Initialize(level string) error {
	var config zap.Config
	if level == "debug" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	built, err := config.Build()
	if err != nil {
		return err
	}

	Set(built)
	return nil
}

// Set installs l as the global logger. Tests use it with zaptest/observer cores.
func Set(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
	if l != nil {
		zap.ReplaceGlobals(l)
	}
}

// Sync flushes any buffered log entries
func Sync() {
	if l := get(); l != nil {
		_ = l.Sync()
	}
}

func get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// L returns the global logger, or a no-op logger before Initialize.
func L() *zap.Logger {
	if l := get(); l != nil {
		return l
	}
	return zap.NewNop()
}

// Named returns a child logger for one component (fetcher, analyzer, scheduler, ...).
func Named(component string) *zap.Logger {
	return L().Named(component)
}

// WithRepo returns a component logger carrying repository identity fields.
func WithRepo(component, repoID, fullName string) *zap.Logger {
	return Named(component).With(zap.String("repo_id", repoID), zap.String("repo", fullName))
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}
