package supervisor

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taskmaster/taskmaster/internal/config"
	"github.com/taskmaster/taskmaster/internal/events"
	"github.com/taskmaster/taskmaster/internal/metrics"
	"github.com/taskmaster/taskmaster/internal/process"
)

// CommandResult is the outcome of applying one lifecycle verb to one id.
type CommandResult struct {
	ID      process.ID
	Message string
	Err     error
}

// Engine owns the authoritative ConfigModel and ProcessTable. All mutating
// operations run under a single exclusive lock; there is no intra-engine
// concurrency, matching the single-threaded control loop in §5.
type Engine struct {
	mu sync.Mutex

	model      config.ConfigModel
	configPath string
	table      *process.Table
	spawner    process.Spawner
	clock      process.Clock
	bus        *events.Bus
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// New constructs an Engine from an already-loaded ConfigModel. Processes are
// created for every id in the config's process set but not yet started.
func New(configPath string, model config.ConfigModel, spawner process.Spawner, bus *events.Bus, mcs *metrics.Collector, logger *slog.Logger) *Engine {
	e := &Engine{
		model:      model,
		configPath: configPath,
		table:      process.NewTable(),
		spawner:    spawner,
		clock:      process.SystemClock(),
		bus:        bus,
		metrics:    mcs,
		logger:     logger,
	}
	e.populate(model)
	return e
}

func (e *Engine) populate(model config.ConfigModel) {
	for id := range model.ProcessSet() {
		prog := model.Programs[id.Name]
		e.table.Add(e.newProcess(id, prog))
	}
}

func (e *Engine) newProcess(id process.ID, prog config.ProgramConfig) *process.Process {
	template := process.SpawnConfig{
		Command:       prog.Executable(),
		Args:          prog.Args(),
		Dir:           prog.Directory,
		Env:           buildEnv(prog),
		User:          prog.User,
		Umask:         prog.Umask,
		StdoutLogfile: prog.StdoutLogfile,
		StderrLogfile: prog.StderrLogfile,
	}
	return process.New(id, prog.RuntimeConfig(template), e.spawner, e.bus, e.logger)
}

func buildEnv(prog config.ProgramConfig) []string {
	env := make([]string, 0, len(prog.Environment))
	for k, v := range prog.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// AutostartAll starts every process whose program has autostart=true.
func (e *Engine) AutostartAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range e.table.Values() {
		if p.Config().Autostart {
			_ = p.Start(e.clock)
		}
	}
}

// Status returns a snapshot for the given ids, or for every live process if
// ids is empty. Unknown ids come back as Unknown-state entries rather than
// failing the whole request, since status has no per-id error variant.
func (e *Engine) Status(ids []process.ID) []process.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(ids) == 0 {
		out := make([]process.Status, 0, e.table.Len())
		for _, p := range e.table.Values() {
			out = append(out, p.Status())
		}
		return out
	}

	out := make([]process.Status, 0, len(ids))
	for _, id := range ids {
		if p, ok := e.table.Get(id); ok {
			out = append(out, p.Status())
		} else {
			out = append(out, process.Status{ID: id, State: process.Unknown, Description: "not found"})
		}
	}
	return out
}

// Start applies Process.Start to each id, collecting a per-id result.
func (e *Engine) Start(ids []process.ID) []CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]CommandResult, 0, len(ids))
	for _, id := range ids {
		p, ok := e.table.Get(id)
		if !ok {
			out = append(out, CommandResult{ID: id, Err: process.ErrNotFound})
			continue
		}
		if err := p.Start(e.clock); err != nil {
			out = append(out, CommandResult{ID: id, Err: err})
			continue
		}
		if e.metrics != nil {
			e.metrics.IncProcessStart(id.String())
		}
		out = append(out, CommandResult{ID: id, Message: "started"})
	}
	return out
}

// Stop applies Process.Stop to each id, collecting a per-id result.
func (e *Engine) Stop(ids []process.ID) []CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked(ids)
}

func (e *Engine) stopLocked(ids []process.ID) []CommandResult {
	out := make([]CommandResult, 0, len(ids))
	for _, id := range ids {
		p, ok := e.table.Get(id)
		if !ok {
			out = append(out, CommandResult{ID: id, Err: process.ErrNotFound})
			continue
		}
		if err := p.Stop(e.clock); err != nil {
			out = append(out, CommandResult{ID: id, Err: err})
			continue
		}
		out = append(out, CommandResult{ID: id, Message: "stopping"})
	}
	return out
}

// Restart stops each id, trashes the stopped Process, then creates and
// starts a fresh one. The two passes are kept separate (stop-all, then
// start-all) so no id is simultaneously "stopping" and "starting" in the
// live table.
func (e *Engine) Restart(ids []process.ID) []CommandResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	stopResults := e.stopLocked(ids)

	var startResults []CommandResult
	for _, id := range ids {
		p, ok := e.table.Get(id)
		if !ok {
			continue
		}
		e.table.Remove(id)
		e.table.Trash(p)

		prog, ok := e.model.Programs[id.Name]
		if !ok {
			startResults = append(startResults, CommandResult{ID: id, Err: process.ErrNotFound})
			continue
		}
		fresh := e.newProcess(id, prog)
		e.table.Add(fresh)
		if err := fresh.Start(e.clock); err != nil {
			startResults = append(startResults, CommandResult{ID: id, Err: err})
			continue
		}
		startResults = append(startResults, CommandResult{ID: id, Message: "started"})
	}

	return append(stopResults, startResults...)
}

// Update reloads the config file and applies differential reconciliation
// (turn_off / turn_on / keep) against the current model.
func (e *Engine) Update() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	newModel, err := config.LoadFile(e.configPath)
	if err != nil {
		if e.metrics != nil {
			e.metrics.IncConfigReloadError()
		}
		return err
	}

	e.reconcile(*newModel)
	if e.metrics != nil {
		e.metrics.IncConfigReload()
	}
	return nil
}

// reconcile computes S0\S1 (turn_off), S1\S0 (turn_on), and S0∩S1 (keep),
// promoting any changed-but-kept id into both turn_off and turn_on.
func (e *Engine) reconcile(newModel config.ConfigModel) {
	oldSet := e.model.ProcessSet()
	newSet := newModel.ProcessSet()

	turnOff := make(map[process.ID]struct{})
	turnOn := make(map[process.ID]struct{})

	for id := range oldSet {
		if _, ok := newSet[id]; !ok {
			turnOff[id] = struct{}{}
		}
	}
	for id := range newSet {
		if _, ok := oldSet[id]; !ok {
			turnOn[id] = struct{}{}
		}
	}
	for id := range oldSet {
		if _, ok := newSet[id]; !ok {
			continue
		}
		oldProg := e.model.Programs[id.Name]
		newProg := newModel.Programs[id.Name]
		if !oldProg.EqualIgnoringNumprocs(newProg) {
			turnOff[id] = struct{}{}
			turnOn[id] = struct{}{}
		}
	}

	for id := range turnOff {
		if p, ok := e.table.Get(id); ok {
			_ = p.Stop(e.clock)
			e.table.Remove(id)
			e.table.Trash(p)
			if e.metrics != nil {
				e.metrics.RemoveProcess(id.String())
			}
		}
	}

	e.model = newModel

	for id := range turnOn {
		prog := newModel.Programs[id.Name]
		p := e.newProcess(id, prog)
		e.table.Add(p)
		if prog.Autostart {
			_ = p.Start(e.clock)
		}
	}
}

// ReloadAll is the "big hammer": stop and remove every live Process, then
// re-add all processes from the current ConfigModel, honoring autostart.
func (e *Engine) ReloadAll() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.table.Ids() {
		if p, ok := e.table.Get(id); ok {
			_ = p.Stop(e.clock)
			e.table.Remove(id)
			e.table.Trash(p)
		}
	}
	e.populate(e.model)
	for _, p := range e.table.Values() {
		if p.Config().Autostart {
			_ = p.Start(e.clock)
		}
	}
}

// Supervise runs one control-loop tick: advance every live Process, then
// drain the trash. Performs no blocking syscalls.
func (e *Engine) Supervise() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range e.table.Values() {
		p.Run(e.clock)
	}
	e.table.DrainTrash(e.clock)

	if e.metrics != nil {
		e.refreshMetricsLocked()
	}
}

func (e *Engine) refreshMetricsLocked() {
	counts := map[process.State]int{}
	for _, p := range e.table.Values() {
		counts[p.State()]++
		e.metrics.SetProcessState(p.ID().String(), int(p.State()))
	}
	for state, n := range counts {
		e.metrics.SetProcessCount(state.String(), n)
	}
}

// Cleanup stops every live Process, moves it to trash, and spins calling
// Supervise until the trash has fully drained (honoring stop/kill
// escalation on each tick).
func (e *Engine) Cleanup() {
	e.mu.Lock()
	for _, id := range e.table.Ids() {
		p, ok := e.table.Get(id)
		if !ok {
			continue
		}
		_ = p.Stop(e.clock)
		e.table.Remove(id)
		e.table.Trash(p)
	}
	e.mu.Unlock()

	for {
		e.Supervise()
		e.mu.Lock()
		empty := e.table.TrashLen() == 0
		e.mu.Unlock()
		if empty {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// KnownIds returns every process id implied by the current config model,
// used to expand the "all" token in RPC requests.
func (e *Engine) KnownIds() map[process.ID]struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.ProcessSet()
}

// SockFile returns the configured control socket path.
func (e *Engine) SockFile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.General.Sockfile
}
