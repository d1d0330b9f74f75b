package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the console logger for a cleanup run. The tool is quiet by
// default (errors only); --verbose raises it to info and --debug to debug.
func New(verbose, debug bool) (*zap.Logger, error) {
	level := zapcore.ErrorLevel
	if verbose {
		level = zapcore.InfoLevel
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true

	return cfg.Build()
}
