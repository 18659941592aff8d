// Package supervisor implements the engine (ConfigModel + ProcessTable,
// command verbs, reconciliation) and the top-level control loop that drives
// it, per the system's component design.
package supervisor

import (
	"os"
	"os/signal"
	"syscall"
)

// SignalQueue captures the three signals the control loop reacts to and
// delivers them on a buffered channel so the handler itself does no work.
type SignalQueue struct {
	C  <-chan os.Signal
	ch chan os.Signal
}

// NewSignalQueue registers for SIGHUP, SIGINT, and SIGTERM.
func NewSignalQueue() *SignalQueue {
	ch := make(chan os.Signal, 16)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	return &SignalQueue{C: ch, ch: ch}
}

// Stop deregisters signal notifications.
func (sq *SignalQueue) Stop() {
	signal.Stop(sq.ch)
}
