package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/MrWong99/scriptvox/internal/config"
)

// newLogger builds the process logger from cfg. With log.file set, output
// goes to a rotating file instead of stderr. The returned func closes it.
func newLogger(cfg config.LogConfig) (*slog.Logger, func()) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w = lj
		closeFn = func() { _ = lj.Close() }
	}
	return slog.New(newHandler(w, cfg.Format, slogLevel(cfg.Level))), closeFn
}

func newHandler(w io.Writer, format config.LogFormat, lvl slog.Level) slog.Handler {
	switch format {
	case config.LogJSON:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	case config.LogPretty:
		return tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
			NoColor:    w != os.Stderr,
		})
	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
