package logging

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"notifyrelay/internal/config"
)

// New builds the process logger. Release mode writes JSON to stdout and to a
// rotating file; otherwise a development console logger is used.
func New(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if cfg.Release {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		encoderCfg := zap.NewProductionEncoderConfig()
		encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		core := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.NewMultiWriteSyncer(
				zapcore.AddSync(os.Stdout),
				zapcore.AddSync(&lumberjack.Logger{
					Filename:   cfg.LogFile,
					MaxSize:    50,
					MaxBackups: 5,
					MaxAge:     14,
					Compress:   true,
				}),
			),
			level,
		)
		return zap.New(core, zap.AddCaller()).With(zap.String("service", cfg.OTELServiceName)), nil
	}

	devCfg := zap.NewDevelopmentConfig()
	if level > zapcore.DebugLevel {
		devCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return devCfg.Build()
}
