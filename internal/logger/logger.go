package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
)

const (
	logEnvKey     = "LOG_ENV"
	defaultLogEnv = "dev"
)

var logger *zap.Logger

func init() {
	var err error
	logger, err = newLogger(os.Getenv(logEnvKey))
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
}

// newLogger falls back to the dev logger for an unknown env and says so.
func newLogger(env string) (*zap.Logger, error) {
	switch env {
	case "", defaultLogEnv:
		return zap.NewDevelopment()
	case "prod":
		return zap.NewProduction()
	case "test":
		return zap.NewNop(), nil
	}

	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	l.Warn("unknown log env, using dev", zap.String(logEnvKey, env))
	return l, nil
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}

// Sync flushes buffered entries, call before exit.
func Sync() {
	_ = logger.Sync()
}
