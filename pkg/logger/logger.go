// Package logger constructs the structured logger used across all TicTacDB
// components. Every subsystem receives a *zap.SugaredLogger through its Config
// struct; this package is the single place where encoding and destination are
// decided.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production logger tagged with the service name. Output goes to
// stderr as JSON with ISO-8601 timestamps. Construction cannot fail with this
// configuration; a failure to build is a programming error and panics.
func New(service string) *zap.SugaredLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.InitialFields = map[string]any{"service": service}

	log, err := config.Build(zap.WithCaller(false))
	if err != nil {
		panic(err)
	}

	return log.Sugar()
}

// NewNop returns a logger that discards everything. Used by tests that don't
// assert on log output.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Sync flushes buffered log entries. Safe to call on shutdown; sync failures
// on stderr are expected on some platforms and ignored by callers.
func Sync(log *zap.SugaredLogger) {
	_ = log.Sync()
	_ = os.Stderr.Sync()
}
