package logger

import (
	"log/slog"
	"os"
	"sort"
)

type LoggerAdapter struct {
	logger *slog.Logger
}

// NewLoggerAdapter logs JSON at info level in production, text at debug level
// elsewhere and nothing under "test".
func NewLoggerAdapter(env string) *LoggerAdapter {
	var handler slog.Handler
	switch env {
	case "production":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	case "test":
		handler = slog.DiscardHandler
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return &LoggerAdapter{logger: slog.New(handler)}
}

func NewWithHandler(handler slog.Handler) *LoggerAdapter {
	return &LoggerAdapter{logger: slog.New(handler)}
}

func (l *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug(msg, attrs(fields)...)
}

func (l *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info(msg, attrs(fields)...)
}

func (l *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn(msg, attrs(fields)...)
}

func (l *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error(msg, attrs(fields)...)
}

// attrs sorts keys so log lines are stable.
func attrs(fields map[string]interface{}) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, fields[k]))
	}
	return out
}
