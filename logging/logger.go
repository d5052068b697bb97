// Package logging provides a tiny abstraction over slog so the bridge can
// depend on a minimal interface (Logger) while the process-wide backend is
// installed once, from a filter string handed over the C boundary.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel is a thin enum for user friendly level configuration decoupled from slog.
type LogLevel int

const (
	// LogLevelTrace is the most verbose level.
	LogLevelTrace LogLevel = iota
	// LogLevelDebug is the debug logging level.
	LogLevelDebug
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
	// LogLevelOff disables output.
	LogLevelOff
)

const (
	// LevelTrace is the slog level used for LogLevelTrace records.
	LevelTrace = slog.LevelDebug - 4
	// LevelOff is above every level a record can carry.
	LevelOff = slog.Level(1 << 20)
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a level name to a LogLevel. Names are case-insensitive.
func ParseLevel(raw string) (LogLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return LogLevelTrace, true
	case "debug":
		return LogLevelDebug, true
	case "info":
		return LogLevelInfo, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "error":
		return LogLevelError, true
	case "off":
		return LogLevelOff, true
	default:
		return LogLevelInfo, false
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelTrace:
		return LevelTrace
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	case LogLevelOff:
		return LevelOff
	default:
		return slog.LevelInfo
	}
}

// Logger defines the minimal logging interface used across the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter writes through a caller-owned *slog.Logger. Programs that build
// their own logger use it in place of the singleton's component loggers.
type SlogAdapter struct {
	logger *slog.Logger
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// NewSlogAdapter returns a Logger for component writing through logger. The
// component attribute is attached up front, so a handler from NewHandler
// applies that target's level.
func NewSlogAdapter(logger *slog.Logger, component string) Logger {
	if component != "" {
		logger = logger.With(ComponentKey, component)
	}
	return &SlogAdapter{logger: logger}
}

// NoOpLogger discards all log messages. Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// LoggerConfig configures construction of the slog backend.
type LoggerConfig struct {
	Filter    Filter
	Format    string // json or text
	Output    io.Writer
	AddSource bool
}

// DefaultLoggerConfig returns a baseline text configuration writing to stderr
// at info level.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Filter: Filter{Default: LogLevelInfo},
		Format: "text",
		Output: os.Stderr,
	}
}

// NewHandler builds the filtered slog handler described by cfg.
func NewHandler(cfg LoggerConfig) slog.Handler {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       LevelTrace,
		AddSource:   cfg.AddSource,
		ReplaceAttr: replaceLevel,
	}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &filterHandler{next: handler, filter: cfg.Filter}
}

// NewLogger builds a *slog.Logger from cfg.
func NewLogger(cfg LoggerConfig) *slog.Logger {
	return slog.New(NewHandler(cfg))
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= LevelTrace {
		return slog.String(slog.LevelKey, "TRACE")
	}
	return a
}

// filterHandler applies a Filter using the record's "component" attribute as
// the target.
type filterHandler struct {
	next      slog.Handler
	filter    Filter
	component string
}

func (h *filterHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.component != "" {
		return level >= h.filter.LevelFor(h.component)
	}
	return level >= h.filter.MinLevel()
}

func (h *filterHandler) Handle(ctx context.Context, rec slog.Record) error {
	component := h.component
	rec.Attrs(func(attr slog.Attr) bool {
		if attr.Key == ComponentKey {
			component = attr.Value.String()
			return false
		}
		return true
	})
	if rec.Level < h.filter.LevelFor(component) {
		return nil
	}
	return h.next.Handle(ctx, rec)
}

func (h *filterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	for _, attr := range attrs {
		if attr.Key == ComponentKey {
			component = attr.Value.String()
		}
	}
	return &filterHandler{next: h.next.WithAttrs(attrs), filter: h.filter, component: component}
}

func (h *filterHandler) WithGroup(name string) slog.Handler {
	return &filterHandler{next: h.next.WithGroup(name), filter: h.filter, component: h.component}
}
