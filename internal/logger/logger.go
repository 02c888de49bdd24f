package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jerneif/lotto-api/internal/config"
)

var level = zap.NewAtomicLevel()

// Init builds the global logger returned by zap.L(). Production writes JSON,
// other environments a console encoding. When conf.File is set, logs are
// also written to a rotated file.
func Init(environment string, conf *config.LogConfig) error {
	if err := SetLevel(conf.Level); err != nil {
		return err
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if environment == "production" {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "time"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level),
	}

	if conf.File != "" {
		fileEncoderConfig := zap.NewProductionEncoderConfig()
		fileEncoderConfig.TimeKey = "time"
		fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

		w := &lumberjack.Logger{
			Filename:   conf.File,
			MaxSize:    conf.MaxSizeMB,
			MaxBackups: conf.MaxBackups,
			MaxAge:     conf.MaxAgeDays,
			Compress:   conf.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(w), level))
	}

	zap.ReplaceGlobals(zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)))

	return nil
}

// SetLevel changes the level of the global logger at runtime.
func SetLevel(l string) error {
	parsed, err := zapcore.ParseLevel(l)
	if err != nil {
		return fmt.Errorf("zapcore.ParseLevel -> %w", err)
	}

	level.SetLevel(parsed)

	return nil
}

// Level returns the current level of the global logger.
func Level() zapcore.Level {
	return level.Level()
}
