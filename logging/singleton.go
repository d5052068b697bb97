package logging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ComponentKey is the attribute naming the emitting component. Filters match
// targets against it.
const ComponentKey = "component"

// Singleton installs a logging backend at most once. The first Init parses
// the filter and installs the backend; every later Init waits for the first
// to finish and then returns without touching the configuration.
type Singleton struct {
	once    sync.Once
	err     error
	filter  Filter
	backend atomic.Pointer[slog.Logger]
}

// Init configures the backend from a filter string. Only the first call has
// any effect. The returned error is the parse error of that first call, and
// is reported to that caller only.
func (s *Singleton) Init(level string, optFns ...func(o *LoggerConfig)) error {
	var err error
	first := false
	s.once.Do(func() {
		first = true
		filter, perr := ParseFilter(level)
		if perr != nil {
			s.err = perr
			return
		}
		cfg := DefaultLoggerConfig()
		for _, fn := range optFns {
			fn(&cfg)
		}
		cfg.Filter = filter
		s.filter = filter
		s.backend.Store(NewLogger(cfg))
	})
	if first {
		err = s.err
	}
	return err
}

// Initialized reports whether a backend has been installed.
func (s *Singleton) Initialized() bool {
	return s.backend.Load() != nil
}

// Filter returns the filter chosen by the first successful Init. It is only
// meaningful after Init has returned.
func (s *Singleton) Filter() Filter {
	return s.filter
}

// Component returns a Logger tagging records with the component name. It
// resolves the backend on every call, so loggers handed out before Init start
// writing once Init succeeds and discard records until then.
func (s *Singleton) Component(name string) Logger {
	return &componentLogger{owner: s, name: name}
}

type componentLogger struct {
	owner *Singleton
	name  string
}

func (c *componentLogger) log(level slog.Level, msg string, args []any) {
	backend := c.owner.backend.Load()
	if backend == nil {
		return
	}
	backend.With(ComponentKey, c.name).Log(context.Background(), level, msg, args...)
}

// Debug logs a debug message.
func (c *componentLogger) Debug(msg string, args ...any) { c.log(slog.LevelDebug, msg, args) }

// Info logs an informational message.
func (c *componentLogger) Info(msg string, args ...any) { c.log(slog.LevelInfo, msg, args) }

// Warn logs a warning message.
func (c *componentLogger) Warn(msg string, args ...any) { c.log(slog.LevelWarn, msg, args) }

// Error logs an error message.
func (c *componentLogger) Error(msg string, args ...any) { c.log(slog.LevelError, msg, args) }

var global Singleton

// Default returns the process-wide Singleton.
func Default() *Singleton {
	return &global
}

// Init configures the process-wide backend. See Singleton.Init.
func Init(level string, optFns ...func(o *LoggerConfig)) error {
	return global.Init(level, optFns...)
}

// Initialized reports whether the process-wide backend is installed.
func Initialized() bool {
	return global.Initialized()
}

// Component returns a process-wide Logger for the named component.
func Component(name string) Logger {
	return global.Component(name)
}
