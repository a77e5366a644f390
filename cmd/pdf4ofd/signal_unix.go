//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals cancel a running batch. Files already written stay.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
