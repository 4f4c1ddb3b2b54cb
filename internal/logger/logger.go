package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var Log *slog.Logger

func init() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	Log = slog.New(handler)
	slog.SetDefault(Log)
}

// SetLevel applies level to both the slog request logger and the zerolog
// component loggers.
func SetLevel(level string) {
	var sl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		sl = slog.LevelDebug
	case "warn":
		sl = slog.LevelWarn
	case "error":
		sl = slog.LevelError
	default:
		sl = slog.LevelInfo
	}
	Log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: sl}))
	slog.SetDefault(Log)

	zl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || zl == zerolog.NoLevel {
		zl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(zl)
}
