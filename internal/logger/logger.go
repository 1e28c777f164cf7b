package logger

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	base = zap.NewNop().Sugar()
	once sync.Once
)

// Init installs a console logger at INFO level. Tests and tools call this;
// the daemon builds a configured logger from its flags and installs it
// with InitWith instead.
func Init() {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		log, err := cfg.Build()
		if err != nil {
			log = zap.NewNop()
		}
		install(log)
	})
}

// InitWith installs the given logger as the package logger and as the zap
// global. The daemon calls this once its config is parsed.
func InitWith(log *zap.Logger) {
	zap.ReplaceGlobals(log)
	install(log)
}

func install(log *zap.Logger) {
	base = log.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Sync flushes buffered log entries. Called on shutdown.
func Sync() {
	_ = base.Sync()
}

// Info logs at INFO level with alternating key-value pairs.
func Info(msg string, args ...any) {
	base.Infow(msg, args...)
}

// Debug logs at DEBUG level with alternating key-value pairs.
func Debug(msg string, args ...any) {
	base.Debugw(msg, args...)
}

// Warn logs at WARN level with alternating key-value pairs.
func Warn(msg string, args ...any) {
	base.Warnw(msg, args...)
}

// Error logs at ERROR level with alternating key-value pairs.
func Error(msg string, args ...any) {
	base.Errorw(msg, args...)
}

// Timed returns elapsed time since start for logging duration.
func Timed(start time.Time) zap.Field {
	return zap.Duration("elapsed", time.Since(start))
}
