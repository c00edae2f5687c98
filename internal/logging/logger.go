// Package logging builds the zap logger used across recalld.
//
// Hook processes communicate with the host assistant over stdout, so all
// logging goes to stderr.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger writing to stderr.
//
// level is a zap level name ("debug", "info", "warn", "error"); format is
// "json" or "console".
func New(level, format string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	core := zapcore.NewCore(
		newEncoder(format),
		zapcore.Lock(os.Stderr),
		parsed,
	)

	return zap.New(core, zap.AddCaller()).With(zap.String("service", "recalld")), nil
}

// newEncoder creates a JSON or console encoder.
func newEncoder(format string) zapcore.Encoder {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	if format == "console" {
		return zapcore.NewConsoleEncoder(encoderCfg)
	}
	return zapcore.NewJSONEncoder(encoderCfg)
}
