// Package logging constructs the structured logger shared by every stage
// of the pipeline.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger from the CLI's repeated --verbose count:
// 0 = info, 1 = debug, 2+ = debug with stack traces on warn and above
// instead of error and above (the closest equivalent zap offers to the
// original tracing::Level::TRACE). Caller info is logged at every
// verbosity, since the production config already enables it.
func New(verbosity int) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()

	switch {
	case verbosity <= 0:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	opts := []zap.Option{}
	if verbosity >= 2 {
		opts = append(opts, zap.AddCaller(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	logger, err := cfg.Build(opts...)
	if err != nil {
		return nil, err
	}
	return logger, nil
}
