// logger.go

package logbridge

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orgoj/logbridge/internal/record"
)

// Logger is a named emit point. Its level is resolved from the merged
// handler filters when the engine is initialized, and again whenever the
// engine is re-initialized, so a handle may be kept across Cleanup.
//
// Emit methods take a fmt format and its arguments. A format whose verbs do
// not match the arguments is reported as a *FormatError and nothing is
// emitted. Records are only formatted when the level is enabled.
type Logger struct {
	ctx   *Context
	name  string
	level atomic.Uint32
	eng   atomic.Pointer[engine]

	resolveMu sync.Mutex
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Level returns the effective level.
func (l *Logger) Level() Level {
	l.current()
	return Level(l.level.Load())
}

// SetLevel overrides the effective level until the engine is re-initialized.
func (l *Logger) SetLevel(lv Level) {
	l.current()
	l.level.Store(uint32(lv.Clamp()))
}

// Enabled reports whether a record at lv would be emitted.
func (l *Logger) Enabled(lv Level) bool {
	l.current()
	return lv != OFF && lv <= Level(l.level.Load())
}

// current re-resolves the level when the engine changed since the last call.
func (l *Logger) current() {
	if l.eng.Load() != l.ctx.engine.Load() {
		if l.ctx.engine.Load() == nil {
			l.ctx.ensureInit()
		}
		l.resolve()
	}
}

func (l *Logger) resolve() {
	l.resolveMu.Lock()
	defer l.resolveMu.Unlock()
	e := l.ctx.engine.Load()
	lv := OFF
	if e != nil {
		lv = e.filters.Level(l.name)
	}
	l.level.Store(uint32(lv))
	l.eng.Store(e)
	l.ctx.adopt(l)
}

// log emits at lv; skip is the number of frames between log and the
// application call site, minus one.
func (l *Logger) log(skip int, lv Level, format string, args []interface{}) error {
	if !l.Enabled(lv) {
		return nil
	}
	msg, err := formatMessage(format, args)
	if err != nil {
		return err
	}
	var pcs [1]uintptr
	runtime.Callers(skip+2, pcs[:])
	l.emit(lv, msg, record.LocationFromPC(pcs[0]))
	return nil
}

func (l *Logger) emit(lv Level, msg string, loc record.Location) {
	l.ctx.dispatch(&record.Record{
		Time:     time.Now(),
		Level:    lv,
		Logger:   l.name,
		Location: loc,
		Message:  msg,
	})
}

// Log emits at lv.
func (l *Logger) Log(lv Level, format string, args ...interface{}) error {
	return l.log(1, lv, format, args)
}

// LogDepth emits at lv reporting the caller depth frames above the caller
// of LogDepth, for helpers wrapping a Logger.
func (l *Logger) LogDepth(depth int, lv Level, format string, args ...interface{}) error {
	return l.log(1+depth, lv, format, args)
}

// Off validates format against args without emitting anything.
func (l *Logger) Off(format string, args ...interface{}) error {
	_, err := formatMessage(format, args)
	return err
}

// Panic emits at PANIC. It does not panic.
func (l *Logger) Panic(format string, args ...interface{}) error {
	return l.log(1, PANIC, format, args)
}

func (l *Logger) Alert(format string, args ...interface{}) error {
	return l.log(1, ALERT, format, args)
}

func (l *Logger) Critical(format string, args ...interface{}) error {
	return l.log(1, CRITICAL, format, args)
}

func (l *Logger) Error(format string, args ...interface{}) error {
	return l.log(1, ERROR, format, args)
}

func (l *Logger) Warning(format string, args ...interface{}) error {
	return l.log(1, WARNING, format, args)
}

func (l *Logger) Notice(format string, args ...interface{}) error {
	return l.log(1, NOTICE, format, args)
}

// Output emits at OUTPUT, the level of regular program output: the default
// console writes it to stdout without decoration.
func (l *Logger) Output(format string, args ...interface{}) error {
	return l.log(1, OUTPUT, format, args)
}

func (l *Logger) Info(format string, args ...interface{}) error {
	return l.log(1, INFO, format, args)
}

func (l *Logger) Debug(format string, args ...interface{}) error {
	return l.log(1, DEBUG, format, args)
}

func (l *Logger) Fine(format string, args ...interface{}) error {
	return l.log(1, FINE, format, args)
}

func (l *Logger) Trace(format string, args ...interface{}) error {
	return l.log(1, TRACE, format, args)
}

func (l *Logger) Lowest(format string, args ...interface{}) error {
	return l.log(1, LOWEST, format, args)
}
