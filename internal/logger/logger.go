// Package logger is the process-wide zap wrapper. The profile comes
// from LOG_ENV: human-readable output for dev, JSON for prod.
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
	env := os.Getenv(logEnvKey)
	if env == "" {
		env = defaultLogEnv
	}

	var cfg zap.Config
	switch env {
	case "dev":
		cfg = zap.NewDevelopmentConfig()
	case "prod":
		cfg = zap.NewProductionConfig()
	default:
		log.Fatalf("unknown %s value %q", logEnvKey, env)
	}

	var err error
	// skip one frame so call sites report themselves, not this wrapper
	logger, err = cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal("logger init: ", err)
	}
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
