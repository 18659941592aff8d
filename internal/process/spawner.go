package process

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
)

// SpawnConfig holds everything needed to execute the spawn recipe in §4.1:
// resolve the credential, apply umask, open and truncate the log files,
// redirect fds 1/2, close stdin, chdir, then exec.
type SpawnConfig struct {
	Command        string
	Args           []string
	Dir            string
	Env            []string
	User           string
	Umask          int // -1 means inherit
	StdoutLogfile  string
	StderrLogfile  string
	RedirectStderr bool
}

// ExitInfo is the reaped-exit summary the tick loop consumes. os.ProcessState
// has no exported constructor outside os/exec's internal wait path, so a
// non-blocking waitpid cannot hand one back; ExitInfo is the minimal
// equivalent the state machine actually needs.
type ExitInfo struct {
	ExitCode int // meaningless when Signaled
	Signal   int
	Signaled bool
}

// SpawnedProcess is a running child, abstracted so tests can substitute
// MockProcess for a real OS process.
type SpawnedProcess interface {
	Pid() int
	// TryWait performs a non-blocking reap (waitpid WNOHANG). exited is
	// false while the child is still alive.
	TryWait() (info ExitInfo, exited bool, err error)
	Signal(sig os.Signal) error
	SignalGroup(sig os.Signal) error
}

// Spawner creates child processes. ExecSpawner is the real implementation;
// MockSpawner is the test double.
type Spawner interface {
	Spawn(cfg SpawnConfig, logger *slog.Logger) (SpawnedProcess, error)
}

// ExecSpawner spawns real OS processes via os/exec. The post-fork setup
// recipe is performed through os/exec's hooks: SysProcAttr for
// credential/process-group isolation, Dir for chdir, and log files opened
// with O_TRUNC in the parent and handed to the child as fd 1/2.
type ExecSpawner struct{}

type execProcess struct {
	cmd *exec.Cmd
}

// Spawn starts a real child process per the §4.1 spawn recipe.
func (ExecSpawner) Spawn(cfg SpawnConfig, logger *slog.Logger) (SpawnedProcess, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("no command configured")
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.Env
	cmd.SysProcAttr = BuildSysProcAttr(cfg.User, logger)
	cmd.Stdin = nil // os/exec connects the child's stdin to the null device

	stdout, err := openLogfile(cfg.StdoutLogfile)
	if err != nil {
		return nil, fmt.Errorf("cannot open stdout logfile: %w", err)
	}
	if stdout != nil {
		cmd.Stdout = stdout
	}

	var stderr *os.File
	if cfg.RedirectStderr {
		cmd.Stderr = cmd.Stdout
	} else {
		stderr, err = openLogfile(cfg.StderrLogfile)
		if err != nil {
			closeIfOpen(stdout)
			return nil, fmt.Errorf("cannot open stderr logfile: %w", err)
		}
		if stderr != nil {
			cmd.Stderr = stderr
		}
	}

	prevUmask := -1
	if cfg.Umask >= 0 {
		prevUmask = ApplyUmask(cfg.Umask)
	}
	err = cmd.Start()
	if prevUmask >= 0 {
		ApplyUmask(prevUmask)
	}
	// The parent's copy of the log fds is no longer needed either way --
	// the child inherited its own, and a failed Start left nothing to leak.
	closeIfOpen(stdout)
	closeIfOpen(stderr)
	if err != nil {
		return nil, err
	}

	return &execProcess{cmd: cmd}, nil
}

func openLogfile(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

func closeIfOpen(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

// TryWait is the non-blocking reap used by every tick; it never blocks.
func (p *execProcess) TryWait() (ExitInfo, bool, error) {
	var ws syscall.WaitStatus
	pid, err := syscall.Wait4(p.cmd.Process.Pid, &ws, syscall.WNOHANG, nil)
	if err != nil {
		return ExitInfo{}, false, err
	}
	if pid == 0 {
		return ExitInfo{}, false, nil
	}
	if ws.Signaled() {
		return ExitInfo{Signal: int(ws.Signal()), Signaled: true}, true, nil
	}
	return ExitInfo{ExitCode: ws.ExitStatus()}, true, nil
}

func (p *execProcess) Signal(sig os.Signal) error {
	return p.cmd.Process.Signal(sig)
}

func (p *execProcess) SignalGroup(sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return fmt.Errorf("signal %v is not a syscall.Signal", sig)
	}
	return syscall.Kill(-p.cmd.Process.Pid, s)
}

// MockSpawner is a test double for Spawner.
type MockSpawner struct {
	SpawnFn    func(cfg SpawnConfig) (*MockProcess, error)
	SpawnCalls []SpawnConfig
	last       *MockProcess
}

func (m *MockSpawner) Spawn(cfg SpawnConfig, logger *slog.Logger) (SpawnedProcess, error) {
	m.SpawnCalls = append(m.SpawnCalls, cfg)
	if m.SpawnFn != nil {
		p, err := m.SpawnFn(cfg)
		if err == nil {
			m.last = p
		}
		return p, err
	}
	p := NewMockProcess(1000 + len(m.SpawnCalls))
	m.last = p
	return p, nil
}

// LastProcess returns the most recently spawned MockProcess, for tests that
// need to drive its exit after Start/the backoff retry loop has respawned it.
func (m *MockSpawner) LastProcess() *MockProcess { return m.last }

// MockProcess is a test double for SpawnedProcess, driven explicitly by
// tests via Exit/ExitSignaled instead of real OS liveness.
type MockProcess struct {
	pid      int
	exited   bool
	info     ExitInfo
	signals  []os.Signal
	failWait bool
}

// NewMockProcess creates a MockProcess with the given PID, alive until
// Exit/ExitSignaled is called.
func NewMockProcess(pid int) *MockProcess { return &MockProcess{pid: pid} }

func (p *MockProcess) Pid() int { return p.pid }

func (p *MockProcess) TryWait() (ExitInfo, bool, error) {
	if p.failWait {
		return ExitInfo{}, false, fmt.Errorf("wait4 failed")
	}
	return p.info, p.exited, nil
}

func (p *MockProcess) Signal(sig os.Signal) error {
	p.signals = append(p.signals, sig)
	return nil
}

func (p *MockProcess) SignalGroup(sig os.Signal) error { return p.Signal(sig) }

// Exit marks the mock process as having exited with the given code.
func (p *MockProcess) Exit(code int) { p.exited = true; p.info = ExitInfo{ExitCode: code} }

// ExitSignaled marks the mock process as killed by the given signal.
func (p *MockProcess) ExitSignaled(sig int) {
	p.exited = true
	p.info = ExitInfo{Signal: sig, Signaled: true}
}

// Signals returns every signal the test harness sent to the mock.
func (p *MockProcess) Signals() []os.Signal { return p.signals }
