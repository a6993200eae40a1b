package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Log = zap.NewNop()

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a logger writing to stdout. encoding is "json" (default) or "console".
func New(level, encoding string) (*zap.Logger, error) {
	if encoding != "console" {
		encoding = "json"
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	if encoding == "console" {
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    enc,
	}

	return cfg.Build()
}

// Init sets the global logger. Components should still receive a *zap.Logger explicitly.
func Init(level, encoding string) *zap.Logger {
	l, err := New(level, encoding)
	if err != nil {
		panic(err)
	}

	Log = l
	zap.ReplaceGlobals(l)

	return l
}
