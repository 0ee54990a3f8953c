package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures the process-wide logger.
type Options struct {
	Dir            string    // rotating JSON files; empty disables file output
	Level          string    // debug, info, warn or error
	RetentionWeeks int       // how long rotated files are kept
	MaxFileSize    int64     // bytes before a size rotation; 0 disables
	Console        io.Writer // text output; stderr in stdio transport mode
}

type LoggingService struct {
	Logger  *slog.Logger
	rotator *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger installs the global logger and makes it the slog default.
func InitLogger(opts Options) {
	if DefaultLoggingService != nil {
		DefaultLoggingService.Close()
	}
	logger, rotator := newLogger(opts)
	DefaultLoggingService = &LoggingService{Logger: logger, rotator: rotator}
	slog.SetDefault(logger)
}

// Close flushes and closes the rotating file, if any.
func (s *LoggingService) Close() {
	if s == nil || s.rotator == nil {
		return
	}
	if err := s.rotator.Close(); err != nil {
		slog.Warn("Failed to close log file", "error", err)
	}
	s.rotator = nil
}

// Shutdown closes the global logger's file output.
func Shutdown() {
	DefaultLoggingService.Close()
}

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(opts Options) (*slog.Logger, *RotatingLogger) {
	level := ParseLevel(opts.Level)
	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})

	if opts.Dir == "" {
		return slog.New(consoleHandler), nil
	}

	retention := opts.RetentionWeeks
	if retention <= 0 {
		retention = 4
	}
	rotator, err := OpenRotatingLogger(opts.Dir, retention, opts.MaxFileSize)
	if err != nil {
		logger := slog.New(consoleHandler)
		logger.Error("File logging disabled", "dir", opts.Dir, "error", err)
		return logger, nil
	}

	// the file keeps debug records regardless of the console level
	fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}}), rotator
}

// Logger returns the global logger, or slog's default before InitLogger.
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.Default()
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) { Logger().Info(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Warn(msg string, args ...any) { Logger().Warn(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

type traceKey struct{}

// WithTraceID attaches a resolution trace id to ctx.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceKey{}, id)
}

// TraceID returns the id set by WithTraceID, or "".
func TraceID(ctx context.Context) string {
	id, _ := ctx.Value(traceKey{}).(string)
	return id
}
