package config

import (
	"testing"

	"github.com/taskmaster/taskmaster/internal/process"
)

func TestProcessSetExpandsNumprocs(t *testing.T) {
	cfg := ConfigModel{Programs: map[string]ProgramConfig{
		"web": {Name: "web", Numprocs: 3},
		"db":  {Name: "db", Numprocs: 1},
	}}
	set := cfg.ProcessSet()

	want := []process.ID{
		{Name: "web", Seq: 0}, {Name: "web", Seq: 1}, {Name: "web", Seq: 2},
		{Name: "db", Seq: 0},
	}
	if len(set) != len(want) {
		t.Fatalf("ProcessSet len = %d, want %d", len(set), len(want))
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			t.Fatalf("ProcessSet missing %v", id)
		}
	}
}

func TestEqualIgnoringNumprocsIgnoresOnlyNumprocs(t *testing.T) {
	a := ProgramConfig{Name: "web", Command: []string{"/bin/true"}, Numprocs: 1, StartSecs: 5}
	b := a
	b.Numprocs = 4
	if !a.EqualIgnoringNumprocs(b) {
		t.Fatal("expected configs differing only in Numprocs to be equal")
	}

	c := a
	c.StartSecs = 9
	if a.EqualIgnoringNumprocs(c) {
		t.Fatal("expected a StartSecs change to make the configs unequal")
	}
}

func TestEqualIgnoringNumprocsComparesEnvironment(t *testing.T) {
	a := ProgramConfig{Name: "web", Environment: map[string]string{"A": "1"}}
	b := ProgramConfig{Name: "web", Environment: map[string]string{"A": "2"}}
	if a.EqualIgnoringNumprocs(b) {
		t.Fatal("expected differing environment maps to make the configs unequal")
	}
}

func TestRuntimeConfigCarriesLifecycleFields(t *testing.T) {
	p := ProgramConfig{
		Autostart: true, Autorestart: process.AutorestartAlways,
		ExitCodes: []int{0, 2}, StartSecs: 3, StartRetries: 4,
		StopSignal: "TERM", StopWaitSecs: 9,
	}
	rc := p.RuntimeConfig(process.SpawnConfig{Command: "/bin/true"})
	if rc.Autostart != true || rc.Autorestart != process.AutorestartAlways {
		t.Fatalf("RuntimeConfig = %+v", rc)
	}
	if rc.StartSecs != 3 || rc.StartRetries != 4 || rc.StopWaitSecs != 9 {
		t.Fatalf("RuntimeConfig timings = %+v", rc)
	}
	if rc.StopSignal == nil {
		t.Fatal("expected a resolved StopSignal for \"TERM\"")
	}
}

func TestExecutableAndArgsOnEmptyCommand(t *testing.T) {
	p := ProgramConfig{}
	if p.Executable() != "" {
		t.Fatalf("Executable() = %q, want empty", p.Executable())
	}
	if p.Args() != nil {
		t.Fatalf("Args() = %v, want nil", p.Args())
	}
}
