// Package lifecycle derives an object's lifecycle state from the
// in-use table and release history rather than storing it separately, and
// validates that an operation is legal in the object's current state
// before the caller mutates anything.
package lifecycle

import (
	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/inuse"
)

// State is one of the four states an object can be in from this client's
// point of view.
type State int

const (
	// Absent means this client holds no local reference and nothing in
	// release history: the store may or may not know the object, but
	// this client has no bookkeeping for it.
	Absent State = iota

	// Creating means a local Create has been issued but not yet Sealed
	// (or Aborted).
	Creating

	// SealedInUse means the object is sealed and at least one local
	// reference is held.
	SealedInUse

	// Queued means the object is sealed, the local refcount has reached
	// zero, and it is retained in the release history pending flush.
	Queued
)

// String names the state the way log lines and StateError messages show
// it.
func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Creating:
		return "creating"
	case SealedInUse:
		return "sealed-in-use"
	case Queued:
		return "queued"
	default:
		return "unknown"
	}
}

// Of derives id's current state from table and history contents. It never
// consults the store: a state of Absent here only means this client has
// no local record, not that the store lacks the object.
func Of(table *inuse.Table, history *inuse.History, id plasma.ObjectID) State {
	if e, ok := table.Lookup(id); ok {
		if !e.Sealed {
			return Creating
		}
		return SealedInUse
	}
	if history != nil {
		if _, ok := history.Lookup(id); ok {
			return Queued
		}
	}
	return Absent
}

// Op names a client-facing operation for Check's legality table.
type Op string

const (
	OpCreate   Op = "Create"
	OpSeal     Op = "Seal"
	OpAbort    Op = "Abort"
	OpRelease  Op = "Release"
	OpContains Op = "Contains"
	OpGet      Op = "Get"
	OpDelete   Op = "Delete"
	OpEvict    Op = "Evict"
	OpHash     Op = "Hash"
)

// legal maps each operation to the states it is permitted from.
var legal = map[Op][]State{
	OpCreate:   {Absent},
	OpSeal:     {Creating},
	OpAbort:    {Creating},
	OpRelease:  {SealedInUse},
	OpContains: {Absent, SealedInUse},
	OpGet:      {SealedInUse, Queued, Absent}, // Absent triggers a store round-trip
	OpDelete:   {Queued, Absent},
	OpEvict:    {Queued, Absent},
	OpHash:     {SealedInUse, Queued},
}

// Check validates that op is legal for an object currently in state s,
// returning a StateError if not. Callers run this before mutating any
// table so a rejected operation leaves state unchanged, per the "illegal
// transitions are reported as errors without state change" rule.
func Check(op Op, id plasma.ObjectID, s State) error {
	allowed, ok := legal[op]
	if !ok {
		return plasma.StateError(string(op), id, s.String())
	}
	for _, a := range allowed {
		if a == s {
			return nil
		}
	}
	return plasma.StateError(string(op), id, s.String())
}
