package common

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LOG_MAX_SIZE    = 10 // (MB) size at which the log file is rotated
	LOG_MAX_BACKUPS = 3
	LOG_MAX_AGE     = 28 // (days)
)

// NewLogger logs to stderr in console format, and additionally as JSON to
// a rotated file when file is set. An unparsable level falls back to info.
func NewLogger(level, file string) *zap.Logger {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(false), zapcore.Lock(os.Stderr), lvl),
	}
	if file != "" {
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    LOG_MAX_SIZE,
			MaxBackups: LOG_MAX_BACKUPS,
			MaxAge:     LOG_MAX_AGE,
		})
		cores = append(cores, zapcore.NewCore(encoder(true), writer, lvl))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel))
}

func encoder(json bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if json {
		return zapcore.NewJSONEncoder(cfg)
	}
	return zapcore.NewConsoleEncoder(cfg)
}
