package supervisor

import (
	"log/slog"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/taskmaster/taskmaster/internal/rpc"
)

// tickInterval is the control loop's sleep between iterations, per §4.5.
const tickInterval = 50 * time.Millisecond

// ControlLoop is the single-threaded driver: accept one RPC request, run one
// supervise tick, act on any pending reload or shutdown flag, sleep.
type ControlLoop struct {
	engine  *Engine
	server  *rpc.Server
	signals *SignalQueue
	logger  *slog.Logger

	reload   atomic.Bool
	shutdown atomic.Bool
}

// NewControlLoop wires an engine, an already-registered rpc.Server, and a
// SignalQueue into a runnable loop.
func NewControlLoop(engine *Engine, server *rpc.Server, signals *SignalQueue, logger *slog.Logger) *ControlLoop {
	return &ControlLoop{engine: engine, server: server, signals: signals, logger: logger}
}

// RequestShutdown sets the shutdown flag, the same one SIGINT/SIGTERM set.
// Lets the "shutdown" RPC verb trigger the same cooperative exit path a
// signal would.
func (cl *ControlLoop) RequestShutdown() {
	cl.shutdown.Store(true)
}

// watchSignals drains the signal queue in its own goroutine. Handlers here do
// nothing but set a flag; all actual work happens on the control loop's own
// tick so the engine's lock is only ever taken from one goroutine.
func (cl *ControlLoop) watchSignals() {
	for sig := range cl.signals.C {
		switch sig {
		case syscall.SIGHUP:
			cl.reload.Store(true)
		case syscall.SIGINT, syscall.SIGTERM:
			cl.shutdown.Store(true)
		}
	}
}

// Run executes the control loop until a shutdown signal is observed, then
// drains every process via Cleanup before returning.
func (cl *ControlLoop) Run() {
	go cl.watchSignals()

	for {
		cl.server.AcceptOne()
		cl.engine.Supervise()

		if cl.reload.CompareAndSwap(true, false) {
			if err := cl.engine.Update(); err != nil {
				cl.logger.Error("config reload failed", "error", err)
			}
		}

		if cl.shutdown.Load() {
			cl.logger.Info("shutting down")
			cl.engine.Cleanup()
			return
		}

		time.Sleep(tickInterval)
	}
}
