// Package logger builds the slog logger used by the CLI.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/meenmo/trsreset/config"
)

// New returns a JSON logger writing to w and, when cfg.Logging.File is set, to
// a rotated log file. The returned closer releases the file.
func New(cfg *config.Config, w io.Writer) (*slog.Logger, io.Closer) {
	var closer io.Closer = nopCloser{}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0o755); err != nil {
			// Fall back to w only.
			l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: Level(cfg.Logging.Level)}))
			l.Warn("log file disabled", slog.String("file", cfg.Logging.File), slog.Any("error", err))
			return l, closer
		}
		fileLogger := &lumberjack.Logger{
			Filename:   cfg.Logging.File,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(w, fileLogger)
		closer = fileLogger
	}

	opts := &slog.HandlerOptions{Level: Level(cfg.Logging.Level)}
	return slog.New(slog.NewJSONHandler(w, opts)), closer
}

// Level maps a config level name to a slog level. Unknown names are info.
func Level(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
