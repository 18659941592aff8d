package supervisor

import (
	"io"
	"log/slog"
	"testing"

	"github.com/taskmaster/taskmaster/internal/config"
	"github.com/taskmaster/taskmaster/internal/events"
	"github.com/taskmaster/taskmaster/internal/metrics"
	"github.com/taskmaster/taskmaster/internal/process"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func oneProgramModel(name string, autostart bool) config.ConfigModel {
	return config.ConfigModel{
		General: config.GeneralConfig{Sockfile: "/tmp/unused.sock"},
		Programs: map[string]config.ProgramConfig{
			name: {
				Name: name, Command: []string{"/bin/true"}, Numprocs: 1,
				Autostart: autostart, ExitCodes: []int{0}, StartRetries: 3,
				StopSignal: "TERM", StopWaitSecs: 5,
			},
		},
	}
}

func newTestEngine(model config.ConfigModel) (*Engine, *process.MockSpawner) {
	ms := &process.MockSpawner{}
	bus := events.NewBus(testLogger())
	e := New("unused.ini", model, ms, bus, metrics.New(), testLogger())
	return e, ms
}

func TestAutostartAllSpawnsOnlyAutostartProcesses(t *testing.T) {
	model := oneProgramModel("web", true)
	e, ms := newTestEngine(model)

	e.AutostartAll()
	if len(ms.SpawnCalls) != 1 {
		t.Fatalf("spawn calls = %d, want 1", len(ms.SpawnCalls))
	}

	statuses := e.Status(nil)
	if len(statuses) != 1 || statuses[0].State != process.Starting {
		t.Fatalf("statuses = %+v, want one Starting entry", statuses)
	}
}

func TestAutostartAllSkipsNonAutostart(t *testing.T) {
	model := oneProgramModel("web", false)
	e, ms := newTestEngine(model)

	e.AutostartAll()
	if len(ms.SpawnCalls) != 0 {
		t.Fatalf("spawn calls = %d, want 0", len(ms.SpawnCalls))
	}
}

func TestStatusReportsUnknownForMissingId(t *testing.T) {
	e, _ := newTestEngine(oneProgramModel("web", false))
	missing := process.ID{Name: "ghost", Seq: 0}

	statuses := e.Status([]process.ID{missing})
	if len(statuses) != 1 || statuses[0].State != process.Unknown {
		t.Fatalf("statuses = %+v, want a single Unknown entry", statuses)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	e, _ := newTestEngine(oneProgramModel("web", false))
	id := process.ID{Name: "web", Seq: 0}

	results := e.Start([]process.ID{id})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Start results = %+v", results)
	}

	results = e.Stop([]process.ID{id})
	if len(results) != 1 || results[0].Err != nil {
		t.Fatalf("Stop results = %+v", results)
	}
}

func TestStartUnknownIdReturnsNotFound(t *testing.T) {
	e, _ := newTestEngine(oneProgramModel("web", false))
	results := e.Start([]process.ID{{Name: "ghost", Seq: 0}})
	if len(results) != 1 || results[0].Err != process.ErrNotFound {
		t.Fatalf("results = %+v, want ErrNotFound", results)
	}
}

func TestRestartStopsThenStartsAFreshProcess(t *testing.T) {
	e, ms := newTestEngine(oneProgramModel("web", false))
	id := process.ID{Name: "web", Seq: 0}

	e.Start([]process.ID{id})
	firstPid := ms.LastProcess().Pid()

	results := e.Restart([]process.ID{id})
	var sawStop, sawStart bool
	for _, r := range results {
		if r.Err != nil {
			t.Fatalf("Restart produced an error: %+v", r)
		}
		if r.Message == "stopping" {
			sawStop = true
		}
		if r.Message == "started" {
			sawStart = true
		}
	}
	if !sawStop || !sawStart {
		t.Fatalf("Restart results = %+v, want both a stop and a start result", results)
	}

	if ms.LastProcess().Pid() == firstPid {
		t.Fatal("expected Restart to spawn a brand new child")
	}
	if e.table.TrashLen() != 1 {
		t.Fatalf("TrashLen = %d, want 1 (the old process awaiting drain)", e.table.TrashLen())
	}
}

func TestReconcileTurnsOffRemovedAndTurnsOnAdded(t *testing.T) {
	e, _ := newTestEngine(oneProgramModel("web", true))
	e.AutostartAll()

	newModel := oneProgramModel("db", true) // "web" dropped, "db" added
	e.reconcile(newModel)

	if _, ok := e.table.Get(process.ID{Name: "web", Seq: 0}); ok {
		t.Fatal("expected \"web\" to be removed from the live table")
	}
	if e.table.TrashLen() != 1 {
		t.Fatalf("TrashLen = %d, want 1", e.table.TrashLen())
	}
	dbProc, ok := e.table.Get(process.ID{Name: "db", Seq: 0})
	if !ok {
		t.Fatal("expected \"db\" to be added to the live table")
	}
	if dbProc.State() != process.Starting {
		t.Fatalf("db state = %s, want Starting (autostart)", dbProc.State())
	}
}

func TestReconcileKeepsUnchangedProcessInPlace(t *testing.T) {
	model := oneProgramModel("web", true)
	e, _ := newTestEngine(model)
	e.AutostartAll()
	before, _ := e.table.Get(process.ID{Name: "web", Seq: 0})

	e.reconcile(model) // identical model: nothing should move
	after, _ := e.table.Get(process.ID{Name: "web", Seq: 0})
	if before != after {
		t.Fatal("expected an unchanged program's Process instance to survive reconcile")
	}
	if e.table.TrashLen() != 0 {
		t.Fatalf("TrashLen = %d, want 0 for an unchanged config", e.table.TrashLen())
	}
}

func TestReconcileRestartsChangedProgram(t *testing.T) {
	model := oneProgramModel("web", true)
	e, _ := newTestEngine(model)
	e.AutostartAll()
	before, _ := e.table.Get(process.ID{Name: "web", Seq: 0})

	changed := oneProgramModel("web", true)
	prog := changed.Programs["web"]
	prog.StartSecs = 99
	changed.Programs["web"] = prog

	e.reconcile(changed)
	after, ok := e.table.Get(process.ID{Name: "web", Seq: 0})
	if !ok {
		t.Fatal("expected \"web\" to still be live after a config change")
	}
	if before == after {
		t.Fatal("expected a changed program to get a fresh Process instance")
	}
	if e.table.TrashLen() != 1 {
		t.Fatalf("TrashLen = %d, want 1 (the old instance awaiting drain)", e.table.TrashLen())
	}
}

func TestCleanupDrainsEveryLiveProcess(t *testing.T) {
	e, ms := newTestEngine(oneProgramModel("web", true))
	e.AutostartAll()
	ms.LastProcess().Exit(0) // the mock child "exits" as soon as Cleanup signals it

	e.Cleanup()

	if e.table.Len() != 0 {
		t.Fatalf("live table len = %d, want 0 after Cleanup", e.table.Len())
	}
	if e.table.TrashLen() != 0 {
		t.Fatalf("trash len = %d, want 0 after Cleanup fully drains", e.table.TrashLen())
	}
}

func TestKnownIdsMatchesConfiguredProcessSet(t *testing.T) {
	e, _ := newTestEngine(oneProgramModel("web", false))
	known := e.KnownIds()
	if _, ok := known[process.ID{Name: "web", Seq: 0}]; !ok || len(known) != 1 {
		t.Fatalf("KnownIds = %v, want exactly {web:0}", known)
	}
}
