// Package logging builds the process-wide zap logger, following the pack's
// environment-conditioned encoder selection (JSON in production, console in
// development).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/schedulrx/engine/internal/config"
)

// New builds a *zap.Logger from cfg. The solver core logs solve
// start/end, solver selection, cache hit/miss, and timeout/infeasible
// outcomes at appropriate levels — never inside the hot backtracking loop,
// where per-node logging would dominate solve time.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// NoOp returns a logger that discards everything, used as the solver
// core's default when no logger is supplied.
func NoOp() *zap.Logger {
	return zap.NewNop()
}
