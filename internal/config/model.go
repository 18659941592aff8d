// Package config loads and validates the supervisor's INI configuration
// file into an in-memory ConfigModel.
package config

import (
	"os"
	"strings"

	"github.com/taskmaster/taskmaster/internal/process"
)

// GeneralConfig is the `[general]` section: the control socket path plus the
// ambient daemon-wide settings (logging, pidfile, optional metrics listener)
// that every complete supervisor daemon carries but spec.md's distillation
// left to "implementation detail."
type GeneralConfig struct {
	Sockfile    string
	Pidfile     string
	LogLevel    string // debug|info|warn|error, default info
	LogFormat   string // json|text, default json
	Logfile     string // empty means log to stdout
	MetricsAddr string // empty disables the loopback-only metrics listener
}

// ProgramConfig is the declarative description of one `[program:<name>]`
// section, matching the ProgramConfig fields in the data model exactly.
type ProgramConfig struct {
	Name          string
	Command       []string // first element is the executable
	Numprocs      int
	Autostart     bool
	Autorestart   process.Autorestart
	ExitCodes     []int
	StartSecs     int
	StartRetries  int
	StopSignal    string // POSIX short name, no SIG prefix
	StopWaitSecs  int
	StdoutLogfile string
	StderrLogfile string
	Directory     string
	Umask         int // -1 means unset/inherit
	User          string
	Environment   map[string]string
}

// Executable returns the program's command[0], or "" if Command is empty.
func (p ProgramConfig) Executable() string {
	if len(p.Command) == 0 {
		return ""
	}
	return p.Command[0]
}

// Args returns command[1:].
func (p ProgramConfig) Args() []string {
	if len(p.Command) <= 1 {
		return nil
	}
	return p.Command[1:]
}

// EqualIgnoringNumprocs reports whether two ProgramConfigs are identical in every field
// except Numprocs, used by reconciliation to decide whether an unchanged
// id can keep its existing Process instance.
func (p ProgramConfig) EqualIgnoringNumprocs(o ProgramConfig) bool {
	if p.Name != o.Name ||
		!stringSliceEqual(p.Command, o.Command) ||
		p.Autostart != o.Autostart ||
		p.Autorestart != o.Autorestart ||
		!intSliceEqual(p.ExitCodes, o.ExitCodes) ||
		p.StartSecs != o.StartSecs ||
		p.StartRetries != o.StartRetries ||
		p.StopSignal != o.StopSignal ||
		p.StopWaitSecs != o.StopWaitSecs ||
		p.StdoutLogfile != o.StdoutLogfile ||
		p.StderrLogfile != o.StderrLogfile ||
		p.Directory != o.Directory ||
		p.Umask != o.Umask ||
		p.User != o.User {
		return false
	}
	return stringMapEqual(p.Environment, o.Environment)
}

// ConfigModel is the full in-memory configuration: the general section plus
// one ProgramConfig per configured program name.
type ConfigModel struct {
	General  GeneralConfig
	Programs map[string]ProgramConfig
}

// ProcessSet returns every ProcessId implied by the current programs:
// the union, over all programs, of (name, 0..numprocs).
func (c ConfigModel) ProcessSet() map[process.ID]struct{} {
	set := make(map[process.ID]struct{})
	for name, p := range c.Programs {
		for seq := 0; seq < p.Numprocs; seq++ {
			set[process.ID{Name: name, Seq: seq}] = struct{}{}
		}
	}
	return set
}

// RuntimeConfig builds the process.Config subset for one instance of
// program p, given its resolved spawn template.
func (p ProgramConfig) RuntimeConfig(template process.SpawnConfig) process.Config {
	return process.Config{
		Autostart:    p.Autostart,
		Autorestart:  p.Autorestart,
		ExitCodes:    p.ExitCodes,
		StartSecs:    p.StartSecs,
		StartRetries: p.StartRetries,
		StopSignal:   signalFromName(p.StopSignal),
		StopWaitSecs: p.StopWaitSecs,
		Template:     template,
	}
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func stringMapEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// commandFromLine splits a raw `command` value on spaces, per §6.
func commandFromLine(line string) []string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func signalFromName(name string) os.Signal {
	if sig, ok := process.ParseSignalName(name); ok {
		return sig
	}
	return nil
}
