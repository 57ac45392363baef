package logging

import (
	"context"
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger is a zap backed logger.
// Debug/Info -> stdout
// Warn/Error/Fatal -> stderr
// Level names are coloured when stdout is a terminal.
type DefaultLogger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

// NewDefaultLogger creates a new default logger at InfoLevel
func NewDefaultLogger() *DefaultLogger {
	return newConsoleLogger(isTerminal(os.Stdout), os.Stdout, os.Stderr)
}

// NewStderrLogger creates a logger that writes every level to stderr, for
// commands whose stdout carries data.
func NewStderrLogger() *DefaultLogger {
	return newConsoleLogger(isTerminal(os.Stderr), os.Stderr, os.Stderr)
}

func newConsoleLogger(useColors bool, out, errOut zapcore.WriteSyncer) *DefaultLogger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if useColors {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	enc := zapcore.NewConsoleEncoder(encCfg)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.WarnLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.WarnLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(enc, zapcore.Lock(out), low),
		zapcore.NewCore(enc, zapcore.Lock(errOut), high),
	)

	return &DefaultLogger{zl: zap.New(core), level: level}
}

// NewLoggerFromZap wraps an existing zap logger. SetLevel on the returned
// logger only affects it if zl was built with an AtomicLevel of its own, so
// the wrapper keeps a separate level gate.
func NewLoggerFromZap(zl *zap.Logger) *DefaultLogger {
	if zl == nil {
		return NewDefaultLogger()
	}
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	gated := zl.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return &levelGate{Core: c, level: level}
	}))
	return &DefaultLogger{zl: gated, level: level}
}

type levelGate struct {
	zapcore.Core
	level zap.AtomicLevel
}

func (g *levelGate) Enabled(l zapcore.Level) bool {
	return g.level.Enabled(l) && g.Core.Enabled(l)
}

func (g *levelGate) With(fields []zapcore.Field) zapcore.Core {
	return &levelGate{Core: g.Core.With(fields), level: g.level}
}

func (g *levelGate) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if g.Enabled(e.Level) {
		return g.Core.Check(e, ce)
	}
	return ce
}

// isTerminal reports whether f is a character device
func isTerminal(f *os.File) bool {
	if fileInfo, _ := f.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// zapFields flattens Fields into zap fields in key order so output is stable
func zapFields(fields []Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, merged[k]))
	}
	return out
}

// Zap returns the underlying zap logger
func (d *DefaultLogger) Zap() *zap.Logger {
	return d.zl
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.zl.Debug(msg, zapFields(fields)...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.zl.Info(msg, zapFields(fields)...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.zl.Warn(msg, zapFields(fields)...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.zl.Error(msg, append(zapFields(fields), zap.Error(err))...)
}

// Fatal logs and then exits the process with status 1
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.zl.Fatal(msg, append(zapFields(fields), zap.Error(err))...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	return &DefaultLogger{
		zl:    d.zl.With(zapFields([]Fields{fields})...),
		level: d.level,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level of this logger and every logger derived from it
func (d *DefaultLogger) SetLevel(level Level) {
	d.level.SetLevel(level.zapLevel())
}

// Sync flushes buffered log entries
func (d *DefaultLogger) Sync() error {
	return d.zl.Sync()
}

// NoOpLogger is a logger that does nothing, used when logging is disabled
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
