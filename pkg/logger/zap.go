// Package logger는 zap 로거 생성과 echo/gRPC/gorm 어댑터를 제공합니다.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config 로거 설정
type Config struct {
	// Level 로그 레벨 (debug, info, warn, error, dpanic, panic, fatal)
	Level string `mapstructure:"level"`
	// Format 로그 포맷 (json, console)
	Format string `mapstructure:"format"`
	// Output 로그 출력 대상 (stdout, stderr, file)
	Output string `mapstructure:"output"`
	// FilePath Output이 file일 때의 경로
	FilePath string `mapstructure:"file_path"`
	// Development 개발 모드 여부
	Development bool `mapstructure:"development"`
}

// NewZapLogger 새로운 zap 로거를 생성합니다.
func NewZapLogger(config Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if config.Level != "" {
		parsed, err := zapcore.ParseLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("잘못된 로그 레벨 %q: %w", config.Level, err)
		}
		level.SetLevel(parsed)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "@timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.LevelKey = "log.level"
	encoderConfig.MessageKey = "message"
	encoderConfig.CallerKey = "caller"

	if config.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var writeSyncer zapcore.WriteSyncer
	switch config.Output {
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	case "file":
		if config.FilePath == "" {
			writeSyncer = zapcore.AddSync(os.Stdout)
			break
		}
		file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		writeSyncer = zapcore.AddSync(file)
	default:
		writeSyncer = zapcore.AddSync(os.Stdout)
	}

	logger := zap.New(zapcore.NewCore(encoder, writeSyncer, level))

	if config.Development {
		logger = logger.WithOptions(zap.AddCaller(), zap.Development())
	}

	return logger.WithOptions(zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// DefaultZapLogger 기본 설정(info, json, stdout)으로 zap 로거를 생성합니다.
func DefaultZapLogger() *zap.Logger {
	logger, err := NewZapLogger(Config{Level: "info", Format: "json", Output: "stdout"})
	if err != nil {
		return zap.NewExample()
	}
	return logger
}
