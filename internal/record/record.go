// internal/record/record.go

package record

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/orgoj/logbridge/internal/level"
)

// Location is the source position a record was emitted from.
type Location struct {
	File string
	Line int
	Func string
}

// Record is one emitted log event, immutable once dispatched.
type Record struct {
	Time     time.Time
	Level    level.Level
	Logger   string
	Location Location
	Message  string
	PID      int
	Program  string
}

// Lines splits a multi-line message; line-oriented sinks write one line each.
func (r *Record) Lines() []string {
	msg := strings.TrimRight(r.Message, "\n")
	if msg == "" {
		return []string{""}
	}
	return strings.Split(msg, "\n")
}

// LocationFromPC resolves a program counter returned by runtime.Callers.
func LocationFromPC(pc uintptr) Location {
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	return LocationFromFrame(frame)
}

// LocationFromFrame converts a stack frame.
func LocationFromFrame(frame runtime.Frame) Location {
	return Location{
		File: filepath.Base(frame.File),
		Line: frame.Line,
		Func: ShortFunc(frame.Function),
	}
}

// ShortFunc trims the import path from a fully qualified function name:
// "github.com/x/y/pkg.(*T).Method" becomes "pkg.(*T).Method".
func ShortFunc(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i != -1 {
		fn = fn[i+1:]
	}
	if fn == "" {
		return "???"
	}
	return fn
}
