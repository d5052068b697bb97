package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// ErrInvalidFilter is returned by ParseFilter for text outside the grammar.
var ErrInvalidFilter = errors.New("invalid log filter")

// Directive sets the level of one target.
type Directive struct {
	Target string
	Level  LogLevel
}

// Filter selects the minimum level per target. Targets match the "component"
// attribute of a record by prefix; the longest matching target wins.
type Filter struct {
	Default    LogLevel
	Directives []Directive
}

// ParseFilter parses an env-logger style filter:
//
//	info
//	warn,registry=debug
//	engine=trace,ffi
//
// Directives are comma separated. A bare level sets the default, TARGET=LEVEL
// sets a target, and a bare TARGET enables everything for that target. The
// empty string means "info".
func ParseFilter(spec string) (Filter, error) {
	f := Filter{Default: LogLevelInfo}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		target, rawLevel, hasLevel := strings.Cut(part, "=")
		target = strings.TrimSpace(target)
		if !hasLevel {
			if lvl, ok := ParseLevel(target); ok {
				f.Default = lvl
				continue
			}
			if !validTarget(target) {
				return Filter{}, fmt.Errorf("%w: %q", ErrInvalidFilter, part)
			}
			f.set(target, LogLevelTrace)
			continue
		}
		if !validTarget(target) {
			return Filter{}, fmt.Errorf("%w: bad target in %q", ErrInvalidFilter, part)
		}
		lvl, ok := ParseLevel(rawLevel)
		if !ok {
			return Filter{}, fmt.Errorf("%w: bad level in %q", ErrInvalidFilter, part)
		}
		f.set(target, lvl)
	}
	sort.SliceStable(f.Directives, func(i, j int) bool {
		return len(f.Directives[i].Target) > len(f.Directives[j].Target)
	})
	return f, nil
}

// set replaces an existing directive for target, so the last one wins.
func (f *Filter) set(target string, lvl LogLevel) {
	for i := range f.Directives {
		if f.Directives[i].Target == target {
			f.Directives[i].Level = lvl
			return
		}
	}
	f.Directives = append(f.Directives, Directive{Target: target, Level: lvl})
}

// LevelFor returns the slog threshold applied to records of component.
func (f Filter) LevelFor(component string) slog.Level {
	if component != "" {
		for _, d := range f.Directives {
			if strings.HasPrefix(component, d.Target) {
				return slogLevel(d.Level)
			}
		}
	}
	return slogLevel(f.Default)
}

// MinLevel returns the lowest threshold of any target.
func (f Filter) MinLevel() slog.Level {
	lowest := slogLevel(f.Default)
	for _, d := range f.Directives {
		if lvl := slogLevel(d.Level); lvl < lowest {
			lowest = lvl
		}
	}
	return lowest
}

// String renders the filter back into the directive grammar.
func (f Filter) String() string {
	parts := []string{strings.ToLower(f.Default.String())}
	for _, d := range f.Directives {
		parts = append(parts, d.Target+"="+strings.ToLower(d.Level.String()))
	}
	return strings.Join(parts, ",")
}

func validTarget(target string) bool {
	if target == "" {
		return false
	}
	for _, c := range target {
		isAlnum := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
		if !isAlnum && c != '_' && c != '-' && c != '.' && c != ':' {
			return false
		}
	}
	return true
}
