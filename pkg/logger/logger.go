package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config содержит настройки логгера
type Config struct {
	Level       string
	Env         string
	ServiceName string
}

// Init строит JSON-логгер zap и делает его глобальным
func Init(cfg *Config) error {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"env":     cfg.Env,
			"service": cfg.ServiceName,
		},
	}

	l, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(l.WithOptions(zap.AddCallerSkip(1)))
	return nil
}

// Sync сбрасывает буферы глобального логгера
func Sync() {
	_ = zap.L().Sync()
}

func Debugf(msg string, args ...interface{}) {
	zap.S().Debugf(msg, args...)
}

func Infof(msg string, args ...interface{}) {
	zap.S().Infof(msg, args...)
}

func Warnf(msg string, args ...interface{}) {
	zap.S().Warnf(msg, args...)
}

func Errorf(msg string, args ...interface{}) {
	zap.S().Errorf(msg, args...)
}

// Info пишет сообщение со структурированными полями
func Info(msg string, fields ...zap.Field) {
	zap.L().Info(msg, fields...)
}

// Error пишет сообщение об ошибке со структурированными полями
func Error(msg string, fields ...zap.Field) {
	zap.L().Error(msg, fields...)
}

// ParseLevel переводит строковый уровень в zapcore.Level (по умолчанию info)
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "dbg":
		return zapcore.DebugLevel
	case "info", "information":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error", "err":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
