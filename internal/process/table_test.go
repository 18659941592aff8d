package process

import (
	"syscall"
	"testing"
)

func TestTableAddRemoveGet(t *testing.T) {
	tbl := NewTable()
	p, _ := newTestProcess(Config{ExitCodes: []int{0}})
	tbl.Add(p)

	if tbl.Len() != 1 {
		t.Fatalf("Len = %d, want 1", tbl.Len())
	}
	got, ok := tbl.Get(p.ID())
	if !ok || got != p {
		t.Fatalf("Get returned (%v, %v), want (%v, true)", got, ok, p)
	}

	removed, ok := tbl.Remove(p.ID())
	if !ok || removed != p {
		t.Fatalf("Remove returned (%v, %v), want (%v, true)", removed, ok, p)
	}
	if tbl.Len() != 0 {
		t.Fatalf("Len after Remove = %d, want 0", tbl.Len())
	}
	if _, ok := tbl.Remove(p.ID()); ok {
		t.Fatal("Remove on an absent id should report false")
	}
}

func TestTableDrainTrashKeepsUntilStopped(t *testing.T) {
	tbl := NewTable()
	p, ms := newTestProcess(Config{StartSecs: 0, StartRetries: 0, StopSignal: syscall.SIGTERM, StopWaitSecs: 5, ExitCodes: []int{0}})
	clk := newFakeClock()
	mustStart(t, p, clk)
	p.Run(clk)
	if err := p.Stop(clk); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	tbl.Trash(p)

	if tbl.TrashLen() != 1 {
		t.Fatalf("TrashLen = %d, want 1", tbl.TrashLen())
	}

	tbl.DrainTrash(clk)
	if tbl.TrashLen() != 1 {
		t.Fatalf("TrashLen after a tick with the child still alive = %d, want 1", tbl.TrashLen())
	}

	ms.LastProcess().Exit(0)
	tbl.DrainTrash(clk)
	if tbl.TrashLen() != 0 {
		t.Fatalf("TrashLen after the child exits = %d, want 0", tbl.TrashLen())
	}
}

func TestTableDrainTrashEvictsFatalAsWellAsStopped(t *testing.T) {
	tbl := NewTable()
	p, ms := newTestProcess(Config{StartSecs: 5, StartRetries: 0, ExitCodes: []int{0}})
	clk := newFakeClock()
	mustStart(t, p, clk)

	ms.LastProcess().Exit(1)
	p.Run(clk) // Backoff
	p.Run(clk) // StartRetries: 0 exhausts immediately -> Fatal
	if p.State() != Fatal {
		t.Fatalf("state = %s, want Fatal", p.State())
	}

	tbl.Trash(p)
	if tbl.TrashLen() != 1 {
		t.Fatalf("TrashLen = %d, want 1", tbl.TrashLen())
	}
	tbl.DrainTrash(clk)
	if tbl.TrashLen() != 0 {
		t.Fatalf("TrashLen after draining a Fatal process = %d, want 0", tbl.TrashLen())
	}
}

func TestTableDrainTrashNoopWhenEmpty(t *testing.T) {
	tbl := NewTable()
	tbl.DrainTrash(newFakeClock()) // must not panic on an empty trash slice
	if tbl.TrashLen() != 0 {
		t.Fatalf("TrashLen = %d, want 0", tbl.TrashLen())
	}
}

func TestTableValuesAndIds(t *testing.T) {
	tbl := NewTable()
	p1, _ := newTestProcess(Config{ExitCodes: []int{0}})
	p2 := New(ID{Name: "web", Seq: 1}, Config{ExitCodes: []int{0}}, &MockSpawner{}, nil, testLogger())
	tbl.Add(p1)
	tbl.Add(p2)

	if len(tbl.Values()) != 2 {
		t.Fatalf("Values len = %d, want 2", len(tbl.Values()))
	}
	if len(tbl.Ids()) != 2 {
		t.Fatalf("Ids len = %d, want 2", len(tbl.Ids()))
	}
}
