// writer.go

package logbridge

import (
	"bytes"
	"io"
	"log"
	"runtime"
	"strings"
	"sync"

	"github.com/orgoj/logbridge/internal/record"
)

// lineWriter emits every complete line written to it as one record.
type lineWriter struct {
	l   *Logger
	lv  Level
	mu  sync.Mutex
	buf []byte
}

// Writer returns an io.WriteCloser emitting each written line at lv,
// verbatim. Close emits a trailing partial line.
func (l *Logger) Writer(lv Level) io.WriteCloser {
	return &lineWriter{l: l, lv: lv}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
	return nil
}

func (w *lineWriter) emit(line string) {
	if !w.l.Enabled(w.lv) {
		return
	}
	w.l.emit(w.lv, strings.TrimSuffix(line, "\r"), writerCaller())
}

const selfPackage = "github.com/orgoj/logbridge."

// Packages a write goes through before reaching a lineWriter.
var plumbingPackages = map[string]bool{"log": true, "fmt": true, "io": true, "bufio": true}

// writerCaller returns the first frame outside this package and the
// standard library writer plumbing.
func writerCaller() record.Location {
	var pcs [32]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		fn := frame.Function
		if !strings.HasPrefix(fn, selfPackage) && !plumbingPackages[packageOf(fn)] {
			return record.LocationFromFrame(frame)
		}
		if !more {
			return record.Location{File: "???", Func: "???"}
		}
	}
}

// packageOf returns the last path element of the package of a function.
func packageOf(fn string) string {
	if i := strings.LastIndexByte(fn, '/'); i != -1 {
		fn = fn[i+1:]
	}
	if i := strings.IndexByte(fn, '.'); i != -1 {
		fn = fn[:i]
	}
	return fn
}

// RedirectStdLog routes the standard library logger to the named logger at
// lv. The returned function restores the previous output.
func (c *Context) RedirectStdLog(name string, lv Level) func() {
	w := c.Logger(name).Writer(lv)
	prevOut, prevFlags, prevPrefix := log.Writer(), log.Flags(), log.Prefix()
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(w)
	return func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		log.SetPrefix(prevPrefix)
		_ = w.Close()
	}
}
