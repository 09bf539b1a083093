package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/educare/track_backend/config"
	"github.com/educare/track_backend/pkg/constants"
)

// New returns the process logger and a flush func to run on shutdown.
// Records fan out to stdout, a rotated file and Loki as configured; with no
// output enabled the logger writes JSON to stdout.
func New(cfg *config.Config) (*slog.Logger, func()) {
	level := parseLevel(cfg.Logging.Level)
	out := cfg.Logging.Output
	flush := func() {}

	var sinks []slog.Handler
	if w := localWriter(out); w != nil {
		sinks = append(sinks, localHandler(w, level, cfg))
	}
	if out.Loki.Enabled {
		h, stop, err := newLokiHandler(cfg, level)
		if err != nil {
			slog.Warn("loki sink unavailable, continuing without it", "err", err)
		} else {
			sinks = append(sinks, h)
			flush = stop
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}

	service := cfg.Observability.ServiceName
	if service == "" {
		service = constants.ServiceName
	}
	logger := slog.New(contextHandler{newMultiHandler(sinks)}).With(
		slog.String("service", service),
		slog.String("env", cfg.Server.Environment),
	)
	if v := cfg.Observability.ServiceVersion; v != "" {
		logger = logger.With(slog.String("version", v))
	}
	return logger, flush
}

// localWriter combines stdout and the rotating file. Stdout is implied when
// neither the file nor Loki is enabled.
func localWriter(out config.OutputConfig) io.Writer {
	var ws []io.Writer
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		ws = append(ws, os.Stdout)
	}
	if f := out.File; f.Enabled {
		ws = append(ws, &lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}
	switch len(ws) {
	case 0:
		return nil
	case 1:
		return ws[0]
	default:
		return io.MultiWriter(ws...)
	}
}

// localHandler writes text only in development when asked to; every other
// environment logs JSON.
func localHandler(w io.Writer, level slog.Level, cfg *config.Config) slog.Handler {
	dev := strings.EqualFold(cfg.Server.Environment, "development")
	opts := &slog.HandlerOptions{Level: level, AddSource: dev}
	if dev && strings.EqualFold(cfg.Logging.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}
