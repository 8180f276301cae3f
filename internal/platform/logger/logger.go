package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Level "debug" switches to the
// colored development config, everything else is JSON production output.
func NewLogger(level string) (*zap.Logger, error) {
	var zapConfig zap.Config
	if strings.ToLower(level) == "debug" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if err := zapConfig.Level.UnmarshalText([]byte(level)); err != nil {
		zapConfig.Level.SetLevel(zapcore.InfoLevel)
	}

	return zapConfig.Build()
}
