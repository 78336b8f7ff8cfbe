// Package main is the entry point for the reader API server.
package main

import (
	"os"
	"strings"

	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/qianmo517/reader/cmd/reader-api/app"
	"github.com/qianmo517/reader/internal/config"
)

// getLogLevel parses the READER_LOG_LEVEL environment variable.
// Falls back to LOG_LEVEL for backward compatibility.
// Defaults to info if neither is set or if the value is invalid.
func getLogLevel() (zapcore.Level, bool) {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info", "":
		return zapcore.InfoLevel, true
	case "warn", "warning":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

func main() {
	level, valid := getLogLevel()

	// Production config writes JSON to stderr, keeping stdout clean for
	// commands that print data (e.g. version --format json).
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapCfg.Build()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	otel.SetLogger(zapr.NewLogger(logger.Named("otel")))

	if !valid {
		zap.S().Warnw("Invalid LOG_LEVEL, using INFO", "value", os.Getenv("LOG_LEVEL"))
	}

	if err := app.NewRootCmd().Execute(); err != nil {
		_ = logger.Sync()
		os.Exit(1)
	}
}
