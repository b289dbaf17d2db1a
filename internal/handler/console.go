// internal/handler/console.go

package handler

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/orgoj/logbridge/internal/config"
	"github.com/orgoj/logbridge/internal/level"
	"github.com/orgoj/logbridge/internal/record"
)

// ConsoleHandler writes records to the terminal: records at stderr_level or
// more severe go to stderr, the rest to stdout.
type ConsoleHandler struct {
	base
	mu          sync.Mutex
	stdout      io.Writer
	stderr      io.Writer
	stderrLevel level.Level
	theme       Theme
	colorOut    bool
	colorErr    bool
}

// NewConsoleHandler creates a console handler on os.Stdout and os.Stderr.
// Colors are only emitted on terminals.
func NewConsoleHandler(b base, s *config.Section) (*ConsoleHandler, error) {
	stderrLevel, err := level.Parse(s.StderrLevel)
	if err != nil {
		return nil, fmt.Errorf("stderr_level: %w", err)
	}
	theme, ok := LookupTheme(s.Colors)
	if !ok {
		return nil, fmt.Errorf("unknown color theme '%s'", s.Colors)
	}
	return &ConsoleHandler{
		base:        b,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		stderrLevel: stderrLevel,
		theme:       theme,
		colorOut:    isTerminal(os.Stdout),
		colorErr:    isTerminal(os.Stderr),
	}, nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetOutput redirects the handler, forcing colors on or off.
func (h *ConsoleHandler) SetOutput(stdout, stderr io.Writer, colors bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stdout, h.stderr = stdout, stderr
	h.colorOut, h.colorErr = colors, colors
}

func (h *ConsoleHandler) Open() error { return nil }

// Handle writes each message line. OUTPUT lines are written bare; other
// levels get a "[C] " prefix, and DEBUG or more verbose levels the logger and
// source location.
func (h *ConsoleHandler) Handle(r *record.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, colored := h.stdout, h.colorOut
	if r.Level <= h.stderrLevel {
		w, colored = h.stderr, h.colorErr
	}

	var sb strings.Builder
	for _, line := range r.Lines() {
		text := formatConsoleLine(r, line)
		if colored {
			text = h.theme.Paint(r.Level, text)
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatConsoleLine(r *record.Record, line string) string {
	switch {
	case r.Level == level.OUTPUT:
		return line
	case r.Level >= level.DEBUG:
		return fmt.Sprintf("[%c] %s %s:%d@%s: %s", r.Level.Char(), r.Logger,
			r.Location.File, r.Location.Line, r.Location.Func, line)
	default:
		return fmt.Sprintf("[%c] %s", r.Level.Char(), line)
	}
}

func (h *ConsoleHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, w := range []io.Writer{h.stdout, h.stderr} {
		if f, ok := w.(interface{ Sync() error }); ok && !isStdStream(w) {
			if err := f.Sync(); err != nil {
				return err
			}
		}
	}
	return nil
}

// isStdStream reports the process stdio files, whose Sync fails on pipes and terminals.
func isStdStream(w io.Writer) bool {
	return w == os.Stdout || w == os.Stderr
}

func (h *ConsoleHandler) Close() error { return nil }
