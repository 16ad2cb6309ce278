package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured logging with domain helpers
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger creates a JSON logger on stdout
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stdout, level)
}

// NewLoggerWithWriter creates a JSON logger writing to w
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip string, statusCode int, duration time.Duration) {
	level := slog.LevelInfo
	if statusCode >= 500 {
		level = slog.LevelError
	} else if statusCode >= 400 {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// WidgetLogger logs widget lifecycle events
func (l *Logger) WidgetLogger(event, widgetID string, signals, entities int) {
	l.Info("Widget "+event,
		"widget_id", widgetID,
		"signals", signals,
		"entities", entities,
	)
}

// RankingLogger logs a completed ranking
func (l *Logger) RankingLogger(widgetID string, entities, weightedSignals int, topScore float64, duration time.Duration) {
	l.Info("Ranking Completed",
		"widget_id", widgetID,
		"entities", entities,
		"weighted_signals", weightedSignals,
		"top_score", topScore,
		"duration_ms", duration.Milliseconds(),
	)
}

// HeaderEventLogger logs a dispatched header event
func (l *Logger) HeaderEventLogger(widgetID, signal, event string, err error) {
	if err != nil {
		l.Warn("Header Event Failed",
			"widget_id", widgetID,
			"signal", signal,
			"event", event,
			"error", err,
		)
		return
	}
	l.Info("Header Event",
		"widget_id", widgetID,
		"signal", signal,
		"event", event,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

var startTime = time.Now()
