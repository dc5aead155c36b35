package logger

import (
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// Logger hands out a *slog.Logger backed by zap. Call Sync before exit.
type Logger struct {
	*slog.Logger
	zap *zap.Logger
}

func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{
		Logger: slog.New(zapslog.NewHandler(z.Core(), zapslog.WithCaller(true))),
		zap:    z,
	}, nil
}

// Nop discards everything; used by tests and tools that do not log.
func Nop() *Logger {
	z := zap.NewNop()
	return &Logger{Logger: slog.New(zapslog.NewHandler(z.Core())), zap: z}
}

func (l *Logger) Sync() {
	_ = l.zap.Sync()
}
