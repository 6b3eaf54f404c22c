package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

var log = zap.NewNop()

// Initialize replaces the process logger. The previous logger stays in place
// when the level or encoding is invalid. An empty encoding means JSON.
func Initialize(logLevel string, encoding string, fields ...zap.Field) error {
	zLevel, err := zapcore.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	encodeLevel := zapcore.LowercaseLevelEncoder
	switch encoding {
	case "", EncodingJSON:
		encoding = EncodingJSON
	case EncodingConsole:
		encodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return fmt.Errorf("unknown log encoding %q", encoding)
	}

	config := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(zLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			TimeKey:      "time",
			CallerKey:    "caller",
			EncodeLevel:  encodeLevel,
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}

	built, err := config.Build(zap.Fields(fields...))
	if err != nil {
		return err
	}
	log = built

	return nil
}

// Logger returns the process logger. Before Initialize it is a no-op logger,
// which keeps packages usable from tests.
func Logger() *zap.Logger {
	return log
}

func Sync() error {
	return log.Sync()
}
