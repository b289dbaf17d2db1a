// exception.go

package logbridge

import (
	"fmt"
	"runtime"

	"github.com/orgoj/logbridge/internal/record"
)

// maxErrorChain bounds the number of links reported for one error.
const maxErrorChain = 64

// Exception reports err at ERROR. See ExceptionAt.
func (l *Logger) Exception(err error, format string, args ...interface{}) error {
	return l.exception(1, ERROR, err, format, args)
}

// ExceptionAt reports err and its causes: one TRACE record per link of the
// chain, outermost first and depth-first through joined errors, then a
// summary record at lv made of the formatted message and err.
func (l *Logger) ExceptionAt(lv Level, err error, format string, args ...interface{}) error {
	return l.exception(1, lv, err, format, args)
}

func (l *Logger) exception(skip int, lv Level, err error, format string, args []interface{}) error {
	msg, ferr := formatMessage(format, args)
	if ferr != nil {
		return ferr
	}
	var pcs [1]uintptr
	runtime.Callers(skip+2, pcs[:])
	loc := record.LocationFromPC(pcs[0])

	if err == nil {
		if l.Enabled(lv) {
			l.emit(lv, msg, loc)
		}
		return nil
	}
	if l.Enabled(TRACE) {
		for i, link := range errorChain(err) {
			l.emit(TRACE, describeLink(i, link), loc)
		}
	}
	if l.Enabled(lv) {
		summary := err.Error()
		if msg != "" {
			summary = msg + ": " + summary
		}
		l.emit(lv, summary, loc)
	}
	return nil
}

// errorChain flattens the Unwrap tree of err, depth-first from err itself.
func errorChain(err error) []error {
	var out []error
	var walk func(e error)
	walk = func(e error) {
		if e == nil || len(out) >= maxErrorChain {
			return
		}
		out = append(out, e)
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return out
}

func describeLink(i int, err error) string {
	if i == 0 {
		return fmt.Sprintf("Error (%T): %v", err, err)
	}
	return fmt.Sprintf("Caused by (%T): %v", err, err)
}
