// Package logging builds the zap loggers used by the capcode commands.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Neumenon/capcode/internal/config"
)

// New builds a logger writing to stderr. Format "text" uses the console
// encoder; anything else logs JSON. Verbose forces the debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	if cfg.Format == "text" {
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	zc.Sampling = nil
	zc.DisableStacktrace = !verbose

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Must is like New but falls back to a no-op logger on error.
func Must(cfg config.LoggingConfig, verbose bool) *zap.Logger {
	logger, err := New(cfg, verbose)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
