// registry.go

package logbridge

import (
	"fmt"
	"sort"

	"github.com/gobwas/glob"
)

// Logger returns the logger named name, creating it on first request. The
// first lookup initializes the engine when Init was not called yet, after
// which Configure fails until Cleanup.
func (c *Context) Logger(name string) *Logger {
	c.loggersMu.Lock()
	l, ok := c.loggers[name]
	if !ok {
		l = &Logger{ctx: c, name: name}
		c.loggers[name] = l
	}
	c.loggersMu.Unlock()

	if !ok {
		c.ensureInit()
		l.resolve()
	}
	return l
}

// adopt registers l again after a Cleanup emptied the registry, so that a
// handle kept across re-initialization stays the instance of its name.
func (c *Context) adopt(l *Logger) {
	c.loggersMu.Lock()
	defer c.loggersMu.Unlock()
	if _, ok := c.loggers[l.name]; !ok {
		c.loggers[l.name] = l
	}
}

// Loggers returns a snapshot of the registry sorted by name.
func (c *Context) Loggers() []*Logger {
	c.loggersMu.Lock()
	out := make([]*Logger, 0, len(c.loggers))
	for _, l := range c.loggers {
		out = append(out, l)
	}
	c.loggersMu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// SetLevel overrides the level of the named logger until the next Init.
func (c *Context) SetLevel(name string, l Level) {
	c.Logger(name).SetLevel(l)
}

// compilePattern compiles a logger name pattern; '.' separates components,
// so "app.*" matches "app.db" but not "app.db.pool", and "app.**" matches both.
func compilePattern(pattern string) (glob.Glob, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, fmt.Errorf("invalid logger pattern '%s': %w", pattern, err)
	}
	return g, nil
}

// Match returns the registered loggers whose name matches pattern.
func (c *Context) Match(pattern string) ([]*Logger, error) {
	g, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}
	var out []*Logger
	for _, l := range c.Loggers() {
		if g.Match(l.name) {
			out = append(out, l)
		}
	}
	return out, nil
}

// SetLevels sets l on every registered logger matching pattern and returns
// how many were changed.
func (c *Context) SetLevels(pattern string, l Level) (int, error) {
	loggers, err := c.Match(pattern)
	if err != nil {
		return 0, err
	}
	for _, lg := range loggers {
		lg.SetLevel(l)
	}
	return len(loggers), nil
}
