// internal/report/report.go

// Package report writes the engine's own failures straight to standard error.
// It never goes through handlers, so a broken sink cannot hide its own errors.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Severity of an internal report.
type Severity int

const (
	WARNING Severity = iota
	ERROR
	CRITICAL
)

var severityNames = map[Severity]string{
	WARNING:  "WARNING",
	ERROR:    "ERROR",
	CRITICAL: "CRITICAL",
}

// Reporter serializes report lines on a writer, throttled so that a failing sink
// in a hot loop cannot flood the terminal.
type Reporter struct {
	mu         sync.Mutex
	writer     io.Writer
	limiter    *rate.Limiter
	suppressed int
	now        func() time.Time
}

var (
	defaultReporter *Reporter
	once            sync.Once
)

// Default returns the process-wide reporter writing to os.Stderr.
func Default() *Reporter {
	once.Do(func() {
		defaultReporter = New(os.Stderr)
	})
	return defaultReporter
}

// New creates a reporter: bursts of 10 lines, then one line per 100ms.
func New(w io.Writer) *Reporter {
	return &Reporter{
		writer:  w,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
		now:     time.Now,
	}
}

// SetOutput swaps the writer and returns the previous one.
func (r *Reporter) SetOutput(w io.Writer) io.Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.writer
	r.writer = w
	return prev
}

// SetLimit replaces the throttle; rate.Inf disables it.
func (r *Reporter) SetLimit(limit rate.Limit, burst int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiter = rate.NewLimiter(limit, burst)
}

func (r *Reporter) reportf(sev Severity, format string, args ...interface{}) {
	r.mu.Lock()
	limiter := r.limiter
	r.mu.Unlock()
	if !limiter.Allow() {
		r.mu.Lock()
		r.suppressed++
		r.mu.Unlock()
		return
	}

	// Formatting happens outside the lock.
	now := r.now().Format("2006-01-02T15:04:05Z07:00")
	line := fmt.Sprintf("[%s] %s: logbridge: %s\n", now, severityNames[sev], fmt.Sprintf(format, args...))

	r.mu.Lock()
	if r.suppressed > 0 {
		_, _ = fmt.Fprintf(r.writer, "[%s] WARNING: logbridge: %d report(s) suppressed\n", now, r.suppressed)
		r.suppressed = 0
	}
	_, _ = io.WriteString(r.writer, line)
	r.mu.Unlock()
}

// Warnf reports a recoverable anomaly.
func (r *Reporter) Warnf(format string, args ...interface{}) {
	r.reportf(WARNING, format, args...)
}

// Errorf reports a failed operation.
func (r *Reporter) Errorf(format string, args ...interface{}) {
	r.reportf(ERROR, format, args...)
}

// Criticalf reports a failure that loses records or stops the engine.
func (r *Reporter) Criticalf(format string, args ...interface{}) {
	r.reportf(CRITICAL, format, args...)
}

// Print writes a line verbatim, bypassing the throttle.
func (r *Reporter) Print(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.writer, msg)
}

// Warnf reports through the default reporter.
func Warnf(format string, args ...interface{}) { Default().Warnf(format, args...) }

// Errorf reports through the default reporter.
func Errorf(format string, args ...interface{}) { Default().Errorf(format, args...) }

// Criticalf reports through the default reporter.
func Criticalf(format string, args ...interface{}) { Default().Criticalf(format, args...) }

// Print writes through the default reporter.
func Print(msg string) { Default().Print(msg) }
