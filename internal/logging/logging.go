// Package logging builds the process-wide zap logger: a human-readable
// console core on stderr, plus an optional JSON file core with size-based
// rotation.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Debug   bool
	LogFile string // empty disables the file sink
}

// New builds the logger. Console output goes to stderr so the stdio transport
// keeps stdout to itself.
func New(opts Options) *zap.Logger {
	level := resolveLevel(opts.Debug)

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleCfg),
			zapcore.Lock(os.Stderr),
			level,
		),
	}

	if opts.LogFile != "" {
		sink := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    50, // MiB
			MaxBackups: 3,
			MaxAge:     14, // days
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(sink),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// resolveLevel picks the log level: LOG_LEVEL wins, then the debug flag,
// then info.
func resolveLevel(debug bool) zapcore.Level {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(strings.ToLower(v))); err == nil {
			return l
		}
	}
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
