// Package logging builds the zap logger used across hellobench.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wesleyorama2/hellobench/internal/config"
)

// Options tweak the logger beyond what the configuration says.
type Options struct {
	// Verbose forces debug level regardless of the environment
	Verbose bool

	// LogFile overrides the configured log file when non-empty
	LogFile string
}

// New creates a logger for cfg.
//
// Output goes to stderr with a console encoder. When cfg.LogMetrics is set
// the same entries are also appended to the log file as JSON. The returned
// function closes the log file; call it after the final Sync.
func New(cfg *config.Config, opts Options) (*zap.Logger, func(), error) {
	level := cfg.LogLevel()
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.Sampling = nil
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logFile := cfg.LogFile
	if opts.LogFile != "" {
		logFile = opts.LogFile
	}
	if !cfg.LogMetrics || logFile == "" {
		return logger, func() {}, nil
	}

	sink, closeFile, err := zap.Open(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file %s: %w", logFile, err)
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		sink,
		zcfg.Level,
	)

	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), closeFile, nil
}
