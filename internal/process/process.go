// Package process implements the per-process state machine: one managed
// child, its spawn template, and the tick-driven transition rules that
// decide when to start, back off, or restart it.
package process

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/taskmaster/taskmaster/internal/events"
)

// killSignal is always SIGKILL, used for stop-wait escalation regardless of
// the configured stopsignal.
var killSignal os.Signal = syscall.SIGKILL

// Autorestart is the restart policy applied when a Running process exits.
type Autorestart int

const (
	AutorestartUnexpected Autorestart = iota
	AutorestartAlways
	AutorestartNever
)

func (a Autorestart) String() string {
	switch a {
	case AutorestartAlways:
		return "always"
	case AutorestartNever:
		return "never"
	default:
		return "unexpected"
	}
}

// Config is the subset of a program's configuration a Process needs at
// runtime: the rest (numprocs expansion, name) lives in the ConfigModel.
type Config struct {
	Autostart    bool
	Autorestart  Autorestart
	ExitCodes    []int
	StartSecs    int
	StartRetries int
	StopSignal   os.Signal
	StopWaitSecs int
	Template     SpawnConfig
}

func (c Config) exitCodeOK(code int) bool {
	for _, ec := range c.ExitCodes {
		if ec == code {
			return true
		}
	}
	return false
}

// Process is one managed child: its identity, spawn template, OS child
// handle (if any), and the state-machine variables from §3. All mutation
// happens from the single control-loop thread via Run/Start/Stop, so no
// internal locking is needed; a supervisor-wide lock serializes access
// from RPC handlers instead.
type Process struct {
	id      ID
	conf    Config
	spawner Spawner
	bus     *events.Bus
	logger  *slog.Logger

	state       State
	child       SpawnedProcess
	tryCount    int
	startAt     time.Time
	hasStartAt  bool
	stopAt      time.Time
	hasStopAt   bool
	lastExit    *int // nil means signal-terminated or never exited
	description string

	killSent bool // SIGKILL already issued during this Stopping episode
}

// New creates a Process in the Stopped state.
func New(id ID, conf Config, spawner Spawner, bus *events.Bus, logger *slog.Logger) *Process {
	return &Process{
		id:      id,
		conf:    conf,
		spawner: spawner,
		bus:     bus,
		logger:  logger.With("process", id.String()),
		state:   Stopped,
	}
}

// ID returns the process identity.
func (p *Process) ID() ID { return p.id }

// Config returns the runtime configuration.
func (p *Process) Config() Config { return p.conf }

// State returns the current state.
func (p *Process) State() State { return p.state }

// IsStopped reports whether state == Stopped.
func (p *Process) IsStopped() bool { return p.state == Stopped }

// Pid returns the OS pid of the current child, or 0 if there is none.
func (p *Process) Pid() int {
	if p.child == nil {
		return 0
	}
	return p.child.Pid()
}

// Status synthesizes a snapshot for the RPC status verb.
type Status struct {
	ID          ID
	State       State
	Description string
}

func (p *Process) Status() Status {
	return Status{ID: p.id, State: p.state, Description: p.description}
}

// Start spawns the child. Precondition: state not in {Starting, Backoff,
// Running}. Spawn failure transitions directly to Fatal.
func (p *Process) Start(clock Clock) error {
	if p.state == Starting || p.state == Backoff || p.state == Running {
		return ErrAlreadyStarted
	}
	return p.spawn(clock, 1)
}

func (p *Process) spawn(clock Clock, tryCount int) error {
	child, err := p.spawner.Spawn(p.conf.Template, p.logger)
	if err != nil {
		p.state = Fatal
		p.description = fmt.Sprintf("spawn error: %s", err)
		p.logger.Error("spawn failed", "error", err)
		p.publish()
		return &SpawnError{Err: err}
	}
	p.child = child
	p.tryCount = tryCount
	p.startAt = clock.Now()
	p.hasStartAt = true
	p.state = Starting
	p.description = "starting"
	p.logger.Info("spawned", "pid", child.Pid(), "try", tryCount)
	p.publish()
	return nil
}

// Stop sends the configured stop signal. Precondition: state not in
// {Stopped, Stopping, Fatal, Exited}.
func (p *Process) Stop(clock Clock) error {
	if p.state == Stopped || p.state == Stopping || p.state == Fatal || p.state == Exited {
		return ErrNotRunning
	}
	if p.child == nil {
		// Backoff sits between spawns with no live child to signal or wait
		// on; there is nothing left to stop, so settle it immediately
		// instead of leaving it stranded for DrainTrash to keep retrying.
		p.state = Stopped
		p.description = "stopped"
		p.publish()
		return nil
	}
	if err := p.child.Signal(p.conf.StopSignal); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	p.stopAt = clock.Now()
	p.hasStopAt = true
	p.killSent = false
	p.state = Stopping
	p.description = "stopping"
	p.publish()
	return nil
}

// Run advances the state machine by exactly one tick, per the transition
// table in §4.1. It performs no blocking syscalls.
func (p *Process) Run(clock Clock) {
	switch p.state {
	case Stopped, Fatal:
		// no polled action

	case Starting:
		p.runStarting(clock)

	case Running:
		p.runRunning(clock)

	case Backoff:
		p.runBackoff(clock)

	case Stopping:
		p.runStopping(clock)

	case Exited:
		p.runExited(clock)
	}
}

func (p *Process) runStarting(clock Clock) {
	_, exited, err := p.child.TryWait()
	if err != nil {
		p.logger.Error("wait failed", "error", err)
		return
	}
	if exited {
		p.child = nil
		p.state = Backoff
		p.tryCount++
		p.description = "Exited too quickly"
		p.logger.Warn("exited during startup", "try", p.tryCount)
		p.publish()
		return
	}
	elapsed := clock.Now().Sub(p.startAt)
	if elapsed >= time.Duration(p.conf.StartSecs)*time.Second {
		p.state = Running
		p.description = fmt.Sprintf("pid %d, uptime %s", p.Pid(), formatUptime(0))
		p.publish()
	}
}

func (p *Process) runRunning(clock Clock) {
	info, exited, err := p.child.TryWait()
	if err != nil {
		p.logger.Error("wait failed", "error", err)
		return
	}
	if !exited {
		p.description = fmt.Sprintf("pid %d, uptime %s", p.Pid(), formatUptime(clock.Now().Sub(p.startAt)))
		return
	}
	p.child = nil
	p.state = Exited
	unexpected := info.Signaled || !p.conf.exitCodeOK(info.ExitCode)
	if info.Signaled {
		p.lastExit = nil
	} else {
		code := info.ExitCode
		p.lastExit = &code
	}
	p.description = clock.Now().Format(time.RFC3339)
	if unexpected {
		p.description += " unexpected"
	}
	p.logger.Info("exited", "signaled", info.Signaled, "code", info.ExitCode)
	p.publish()
}

func (p *Process) runBackoff(clock Clock) {
	if p.tryCount > p.conf.StartRetries {
		p.state = Fatal
		p.logger.Warn("giving up after repeated backoff", "tries", p.tryCount)
		p.publish()
		return
	}
	if err := p.spawn(clock, p.tryCount); err != nil {
		// spawn already moved state to Fatal and published.
		return
	}
}

func (p *Process) runStopping(clock Clock) {
	_, exited, err := p.child.TryWait()
	if err != nil {
		p.logger.Error("wait failed", "error", err)
		return
	}
	if exited {
		p.child = nil
		p.state = Stopped
		p.hasStopAt = false
		p.description = clock.Now().Format(time.RFC3339)
		p.logger.Info("stopped")
		p.publish()
		return
	}
	if !p.killSent && clock.Now().Sub(p.stopAt) >= time.Duration(p.conf.StopWaitSecs)*time.Second {
		p.logger.Warn("stop wait exceeded, sending SIGKILL", "pid", p.Pid())
		if err := p.child.Signal(killSignal); err != nil {
			p.logger.Error("sigkill failed", "error", err)
		}
		p.killSent = true
	}
}

func (p *Process) runExited(clock Clock) {
	switch p.conf.Autorestart {
	case AutorestartAlways:
		p.lastExit = nil
		_ = p.spawn(clock, 1)
	case AutorestartUnexpected:
		if p.lastExit == nil || !p.conf.exitCodeOK(*p.lastExit) {
			_ = p.spawn(clock, 1)
		}
	case AutorestartNever:
		// stay
	}
}

func (p *Process) publish() {
	if p.bus == nil {
		return
	}
	eventType, ok := events.StateEventType(p.state.String())
	if !ok {
		return
	}
	p.bus.Publish(events.Event{
		Type: eventType,
		Data: map[string]string{
			"id":    p.id.String(),
			"state": p.state.String(),
			"pid":   fmt.Sprintf("%d", p.Pid()),
		},
	})
}

func formatUptime(d time.Duration) string {
	total := int(d.Seconds())
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
