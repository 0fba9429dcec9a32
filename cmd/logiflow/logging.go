package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// parseLevel maps a --log-level value to a slog level
func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%s: invalid log level", level)
	}
}

// setupLogger installs the default logger. With a log file the output is
// JSON over a rotating file, otherwise text on stderr. The returned closer
// releases the file.
func setupLogger(level string, logFile string) (io.Closer, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if logFile == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return io.NopCloser(nil), nil
	}

	w := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    32, // MB
		MaxAge:     14,
		MaxBackups: 3,
		Compress:   true,
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, opts)))
	return w, nil
}
