//go:build !unix

package logbridge

import "os"

var handledSignals = []os.Signal{os.Interrupt}

func reraise(os.Signal) {
	os.Exit(1)
}
