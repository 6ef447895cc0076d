package inuse

import (
	"testing"

	"github.com/arrowlake/plasma-go/internal/bytesize"
	"github.com/arrowlake/plasma-go/pkg/plasma"
)

func TestHistoryAddAndLookup(t *testing.T) {
	h := NewHistory(0, 0, nil)
	id := testID(t, 1)

	h.add(plasma.PlasmaObject{ID: id, DataSize: 10})
	if _, ok := h.Lookup(id); !ok {
		t.Fatal("expected object retained after add")
	}
	if h.Len() != 1 {
		t.Fatalf("expected length 1, got %d", h.Len())
	}
}

func TestHistoryEvictsOldestWhenOverBudget(t *testing.T) {
	var evicted []plasma.ObjectID
	h := NewHistory(bytesize.ByteSize(150), 0, func(o plasma.PlasmaObject) {
		evicted = append(evicted, o.ID)
	})

	id1, id2, id3 := testID(t, 1), testID(t, 2), testID(t, 3)

	h.add(plasma.PlasmaObject{ID: id1, DataSize: 100})
	h.add(plasma.PlasmaObject{ID: id2, DataSize: 100})

	if len(evicted) != 1 || evicted[0] != id1 {
		t.Fatalf("expected id1 evicted first, got %v", evicted)
	}
	if _, ok := h.Lookup(id1); ok {
		t.Fatal("expected id1 no longer in history")
	}
	if _, ok := h.Lookup(id2); !ok {
		t.Fatal("expected id2 still in history")
	}

	h.add(plasma.PlasmaObject{ID: id3, DataSize: 100})
	if len(evicted) != 2 || evicted[1] != id2 {
		t.Fatalf("expected id2 evicted second, got %v", evicted)
	}
}

func TestHistoryEvictsOldestWhenOverCount(t *testing.T) {
	var evicted []plasma.ObjectID
	h := NewHistory(0, 4, func(o plasma.PlasmaObject) {
		evicted = append(evicted, o.ID)
	})

	ids := make([]plasma.ObjectID, 5)
	for i := range ids {
		ids[i] = testID(t, byte(i+1))
		h.add(plasma.PlasmaObject{ID: ids[i], DataSize: 1})
	}

	if len(evicted) != 1 || evicted[0] != ids[0] {
		t.Fatalf("expected only the oldest (first released) entry evicted once release_delay=4 is exceeded, got %v", evicted)
	}
	if _, ok := h.Lookup(ids[0]); ok {
		t.Fatal("expected oldest entry no longer in history")
	}
	if h.Len() != 4 {
		t.Fatalf("expected history capped at release_delay=4, got %d", h.Len())
	}
}

func TestHistoryRemoveDoesNotCallOnEvict(t *testing.T) {
	var called bool
	h := NewHistory(0, 0, func(plasma.PlasmaObject) { called = true })
	id := testID(t, 1)

	h.add(plasma.PlasmaObject{ID: id, DataSize: 10})
	h.remove(id)

	if called {
		t.Fatal("expected onEvict not called on explicit remove")
	}
	if _, ok := h.Lookup(id); ok {
		t.Fatal("expected object gone after remove")
	}
}

func TestHistoryDropRemovesOnlyThatEntry(t *testing.T) {
	var evicted []plasma.ObjectID
	h := NewHistory(0, 0, func(o plasma.PlasmaObject) { evicted = append(evicted, o.ID) })

	id1, id2 := testID(t, 1), testID(t, 2)
	h.add(plasma.PlasmaObject{ID: id1, DataSize: 10})
	h.add(plasma.PlasmaObject{ID: id2, DataSize: 20})

	obj, ok := h.Drop(id1)
	if !ok || obj.ID != id1 {
		t.Fatalf("expected Drop to return id1's object, got %v ok=%v", obj, ok)
	}
	if len(evicted) != 0 {
		t.Fatal("expected Drop not to invoke onEvict")
	}
	if _, ok := h.Lookup(id1); ok {
		t.Fatal("expected id1 gone after Drop")
	}
	if _, ok := h.Lookup(id2); !ok {
		t.Fatal("expected id2 untouched by Drop")
	}
}

func TestHistoryFlushEvictsEverything(t *testing.T) {
	var evicted []plasma.ObjectID
	h := NewHistory(0, 0, func(o plasma.PlasmaObject) { evicted = append(evicted, o.ID) })

	id1, id2 := testID(t, 1), testID(t, 2)
	h.add(plasma.PlasmaObject{ID: id1, DataSize: 10})
	h.add(plasma.PlasmaObject{ID: id2, DataSize: 20})

	flushed := h.Flush()
	if len(flushed) != 2 {
		t.Fatalf("expected 2 flushed objects, got %d", len(flushed))
	}
	if len(evicted) != 2 {
		t.Fatalf("expected onEvict called for both, got %d", len(evicted))
	}
	if h.Len() != 0 || h.Bytes() != 0 {
		t.Fatalf("expected empty history after flush, got len=%d bytes=%d", h.Len(), h.Bytes())
	}
}

func TestHistoryBytesTracksResidentSize(t *testing.T) {
	h := NewHistory(0, 0, nil)
	id1, id2 := testID(t, 1), testID(t, 2)

	h.add(plasma.PlasmaObject{ID: id1, DataSize: 10, MetadataSize: 5})
	h.add(plasma.PlasmaObject{ID: id2, DataSize: 20})

	if got := h.Bytes(); got != 35 {
		t.Fatalf("expected 35 resident bytes, got %d", got)
	}
}
