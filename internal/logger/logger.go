// Package logger builds the application's structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/lumberjack.v2"

	"github-sentinel/internal/config"
)

const megabyte = 1024 * 1024

// New creates a slog.Logger writing to stderr and, when configured, to a rotating file.
// The returned LevelVar allows the level to be changed at runtime.
func New(cfg config.LoggingConfig) (*slog.Logger, *slog.LevelVar) {
	return newWithWriter(cfg, os.Stderr)
}

func newWithWriter(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	SetLevel(cfg.Level, level)

	writers := []io.Writer{console}
	if cfg.FilePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    maxSizeMB(cfg.MaxFileSize),
			MaxBackups: cfg.BackupCount,
			LocalTime:  true,
		})
	}
	out := io.MultiWriter(writers...)

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), level
}

// SetLevel maps a textual level onto v. Unknown values mean info.
func SetLevel(level string, v *slog.LevelVar) {
	switch strings.ToLower(level) {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn", "warning":
		v.Set(slog.LevelWarn)
	case "error", "critical":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}

// lumberjack rotates on whole megabytes.
func maxSizeMB(bytes int) int {
	if bytes <= 0 {
		return 0
	}
	mb := bytes / megabyte
	if mb == 0 {
		return 1
	}
	return mb
}
