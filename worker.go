// worker.go

package logbridge

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/orgoj/logbridge/internal/report"
)

// workerLogger reports the failures of a worker entry point.
const workerLogger = "logbridge.worker"

// RunWorker runs fn as the body of a worker process: the engine inherited
// from the parent is released without flushing, cfg is configured and
// initialized, fn runs, and the engine is cleaned up. An error returned by fn
// or a panic is reported through the engine at CRITICAL with its cause chain.
// The result is the exit status for the worker.
func (c *Context) RunWorker(cfg *Configuration, fn func() error) (code int) {
	if err := c.reset(false); err != nil {
		report.Warnf("releasing inherited logging state: %v", err)
	}
	if err := c.Configure(cfg); err != nil {
		report.Criticalf("worker logging configuration: %v", err)
		return 1
	}
	if err := c.Init(); err != nil {
		report.Criticalf("worker logging initialization: %v", err)
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			log := c.Logger(workerLogger)
			_ = log.Trace("%s", debug.Stack())
			_ = log.ExceptionAt(CRITICAL, fmt.Errorf("panic: %v", r), "Uncaught panic in worker")
			code = 1
		}
		if err := c.Cleanup(true); err != nil {
			report.Errorf("worker logging cleanup: %v", err)
			if code == 0 {
				code = 1
			}
		}
	}()

	if err := fn(); err != nil {
		_ = c.Logger(workerLogger).ExceptionAt(CRITICAL, err, "Uncaught error in worker")
		return 1
	}
	return 0
}

// Main runs fn with RunWorker and exits the process with its status.
func (c *Context) Main(cfg *Configuration, fn func() error) {
	os.Exit(c.RunWorker(cfg, fn))
}

// Exit flushes and releases the engine, then exits. Deferred functions do
// not run.
func (c *Context) Exit(code int) {
	if err := c.Cleanup(true); err != nil {
		report.Errorf("cleanup at exit: %v", err)
	}
	os.Exit(code)
}
