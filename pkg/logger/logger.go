package logger

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base  = build(os.Getenv("LOG_LEVEL"), os.Getenv("ENVIRONMENT") == "development")
	sugar = base.Sugar()
)

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// build uses the console encoder in development and JSON otherwise.
func build(level string, development bool) *zap.Logger {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	}

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Configure replaces the default logger. Called once from main after config is loaded.
func Configure(level string, development bool) {
	Use(build(level, development))
}

// Use installs l as the package logger.
func Use(l *zap.Logger) {
	base = l
	sugar = l.Sugar()
}

// L exposes the structured logger for callers that want fields.
func L() *zap.Logger {
	return base
}

func Sync() {
	_ = base.Sync()
}

func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

// WithContext prefixes a message with the caller location and an optional context value.
func WithContext(ctx interface{}, format string, v ...interface{}) string {
	_, file, line, _ := runtime.Caller(1)
	contextStr := fmt.Sprintf("%v:%d", file, line)
	if ctx != nil {
		contextStr = fmt.Sprintf("%v - %v", contextStr, ctx)
	}
	return fmt.Sprintf("[%s] %s", contextStr, fmt.Sprintf(format, v...))
}

// Transition records a committed workflow transition.
func Transition(entity, id, action, actor string) {
	base.Info("workflow transition",
		zap.String("entity", entity),
		zap.String("id", id),
		zap.String("action", action),
		zap.String("actor", actor),
	)
}
