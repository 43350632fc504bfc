// Package logger строит zap-логгер сервиса из конфигурации.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EncodingConsole = "console"
	EncodingJSON    = "json"
)

// Config — настройки логирования.
type Config struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" json:"level" default:"info" validate:"oneof=debug info warn error"`
	// Encoding: json для продакшена, console для локальной разработки (цветные уровни).
	Encoding string `yaml:"encoding" json:"encoding" default:"json" validate:"oneof=json console"`
}

// New создаёт логгер, пишущий в stdout.
func New(cfg Config) (*zap.Logger, error) {
	zapConfig, err := cfg.zapConfig()
	if err != nil {
		return nil, err
	}

	return zapConfig.Build()
}

func (c Config) zapConfig() (zap.Config, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return zap.Config{}, fmt.Errorf("log level %q: %w", c.Level, err)
	}

	encoding := c.Encoding
	if encoding == "" {
		encoding = EncodingJSON
	}

	encodeLevel := zapcore.CapitalLevelEncoder
	if encoding == EncodingConsole {
		encodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return zap.Config{
		Level:            level,
		Encoding:         encoding,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:     "msg",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "file",
			TimeKey:        "time",
			StacktraceKey:  "stacktrace",
			EncodeLevel:    encodeLevel,
			EncodeTime:     zapcore.RFC3339TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeName:     zapcore.FullNameEncoder,
		},
	}, nil
}
