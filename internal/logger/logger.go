package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-wide logger. Init must run before first use.
var L *zap.Logger = zap.NewNop()

// Init builds the global logger. Production encoding is selected when
// APP_ENV=production, otherwise a colored development logger is used.
func Init() {
	if os.Getenv("APP_ENV") == "production" {
		L = zap.Must(zap.NewProduction())
		return
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	L = zap.Must(config.Build())
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = L.Sync()
}
