// signal.go

package logbridge

import (
	"os"
	"os/signal"
	"sync"

	"github.com/orgoj/logbridge/internal/report"
)

// signalLogger is the logger reporting a fatal signal.
const signalLogger = "logbridge.signal"

// installSignalHandler makes the termination and fault signals flush c
// before the default disposition of the signal proceeds. The returned
// function uninstalls it.
func installSignalHandler(c *Context) func() {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(ch, handledSignals...)

	go func() {
		select {
		case sig := <-ch:
			c.onSignal(sig)
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

func (c *Context) onSignal(sig os.Signal) {
	_ = c.Logger(signalLogger).Critical("Signal '%s' received, flushing logs before exiting", sig)
	if err := c.Cleanup(true); err != nil {
		report.Errorf("cleanup on signal '%s': %v", sig, err)
	}
	signal.Reset(sig)
	reraise(sig)
}
