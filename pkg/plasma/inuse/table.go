// Package inuse implements the client's in-use table: the bookkeeping of
// which locally-known objects are currently referenced by this process,
// how many local references each has, and whether they are sealed.
package inuse

import (
	"sync"

	"github.com/arrowlake/plasma-go/internal/plog"
	"github.com/arrowlake/plasma-go/pkg/plasma"
)

// Entry is one object's local bookkeeping: its refcount, seal state, and
// the PlasmaObject describing its segments.
type Entry struct {
	Object    plasma.PlasmaObject
	LocalRefs int
	Sealed    bool
}

// Table tracks every object this client process currently holds a local
// reference to. It is guarded by a single mutex the way the teacher's
// Cache guards its top-level file map; unlike Cache there is no per-entry
// lock here because entries are small and held briefly (spec.md §4.3).
type Table struct {
	mu      sync.Mutex
	entries map[plasma.ObjectID]*Entry
	history *History
}

// New returns an empty in-use table backed by the given release history.
// history may be nil, in which case EndUse deletes entries outright
// instead of retaining them (used by tests that don't care about I4).
func New(history *History) *Table {
	return &Table{
		entries: make(map[plasma.ObjectID]*Entry),
		history: history,
	}
}

// BeginUse records a new local reference to obj, or increments the
// refcount of an existing one. Reviving an entry out of the release
// history (if present there) counts as a fresh BeginUse rather than a
// second reference on top of history's own bookkeeping.
func (t *Table) BeginUse(obj plasma.PlasmaObject, sealed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.history != nil {
		t.history.remove(obj.ID)
	}

	e, ok := t.entries[obj.ID]
	if !ok {
		e = &Entry{Object: obj, Sealed: sealed}
		t.entries[obj.ID] = e
	}
	e.LocalRefs++
	if sealed {
		e.Sealed = true
	}
}

// Seal marks an already-present entry sealed, for the Create/Seal path
// where BeginUse happens at Create time before the object is sealed.
func (t *Table) Seal(id plasma.ObjectID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[id]; ok {
		e.Sealed = true
	}
}

// EndUse releases one local reference to id. When the refcount reaches
// zero on a sealed entry, it is handed to the release history instead of
// being deleted outright, matching invariant I3: a just-released object
// stays reachable via Lookup until history evicts it. An unsealed entry
// (the Abort path) is dropped outright — it was never visible to other
// clients, so there is nothing for history to retain.
//
// A refcount going negative means some caller released the same entry
// more times than it was ever acquired — this table's own bookkeeping is
// corrupt, so EndUse aborts the process via plasma.Fatal rather than
// returning an ordinary error a caller might paper over.
func (t *Table) EndUse(id plasma.ObjectID) (reachedZero bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return false, plasma.NotFoundError(id)
	}

	e.LocalRefs--
	if e.LocalRefs < 0 {
		plasma.Fatal("in-use entry refcount went negative", plog.ObjectID(id.Bytes()))
	}
	if e.LocalRefs > 0 {
		return false, nil
	}

	delete(t.entries, id)
	if t.history != nil && e.Sealed {
		t.history.add(e.Object)
	}
	return true, nil
}

// Lookup returns the entry for id and whether it is currently present
// (held locally with LocalRefs > 0). It does not consult the release
// history; callers that must also see recently-released objects should
// check History.Lookup on a miss here.
func (t *Table) Lookup(id plasma.ObjectID) (Entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of objects currently held with at least one
// local reference.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
