package process

// Table is a mapping from ID to Process plus an ordered trash sequence for
// Processes removed by reconciliation or shutdown that still need to finish
// stopping. Processes never move from trash back into the live set.
type Table struct {
	live  map[ID]*Process
	trash []*Process
}

// NewTable returns an empty Table.
func NewTable() *Table {
	return &Table{live: make(map[ID]*Process)}
}

// Add inserts p into the live table, keyed by its ID.
func (t *Table) Add(p *Process) {
	t.live[p.ID()] = p
}

// Remove takes id out of the live table and returns its Process so the
// caller can place it into trash. Returns nil, false if id is not live.
func (t *Table) Remove(id ID) (*Process, bool) {
	p, ok := t.live[id]
	if !ok {
		return nil, false
	}
	delete(t.live, id)
	return p, true
}

// Trash appends p to the trash sequence.
func (t *Table) Trash(p *Process) {
	t.trash = append(t.trash, p)
}

// Get returns the live Process for id, if any.
func (t *Table) Get(id ID) (*Process, bool) {
	p, ok := t.live[id]
	return p, ok
}

// Values returns every live Process. Order is unspecified.
func (t *Table) Values() []*Process {
	out := make([]*Process, 0, len(t.live))
	for _, p := range t.live {
		out = append(out, p)
	}
	return out
}

// Ids returns every live ID. Order is unspecified.
func (t *Table) Ids() []ID {
	out := make([]ID, 0, len(t.live))
	for id := range t.live {
		out = append(out, id)
	}
	return out
}

// Len reports the number of live entries.
func (t *Table) Len() int { return len(t.live) }

// TrashLen reports the number of entries still draining in trash.
func (t *Table) TrashLen() int { return len(t.trash) }

// DrainTrash ticks every trashed Process via run() and drops those that
// reached Stopped or Fatal. Called once per supervise() tick; performs no
// blocking syscalls since Process.Run only does non-blocking reaps.
func (t *Table) DrainTrash(clock Clock) {
	if len(t.trash) == 0 {
		return
	}
	kept := t.trash[:0]
	for _, p := range t.trash {
		p.Run(clock)
		if p.State() != Stopped && p.State() != Fatal {
			kept = append(kept, p)
		}
	}
	t.trash = kept
}
