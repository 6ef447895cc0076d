// Package mmaptbl implements the client's per-process mmap table: one
// mapping per store-assigned fd, looked up by a caller-chosen key and
// refcounted so repeated lookups of the same region reuse one mapping.
package mmaptbl

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNegativeRefcount is wrapped by Decrement's error when a region's
// active count would go below zero — the in-use table handed out more
// references to a store fd than this table ever recorded, which means
// the client's own bookkeeping is corrupt. Callers that can hit this
// report it through their own fatal path rather than this package
// panicking on behalf of callers that might legitimately probe state
// first.
var ErrNegativeRefcount = errors.New("mmaptbl: active count went negative")

// region is one mmap'd segment and how many live references point at it.
type region struct {
	base        []byte
	activeCount int
}

// Table maps a store fd identity to its mmap'd region. It is guarded by a
// mutex purely so go test -race can prove the table provably safe in
// isolation, and so advanced embedders may share one Table across
// goroutines at their own risk — the client itself is single-threaded per
// instance and never contends this lock (spec §5).
type Table struct {
	mu      sync.Mutex
	regions map[uint64]*region
}

// New returns an empty mmap table.
func New() *Table {
	return &Table{regions: make(map[uint64]*region)}
}

// MapFunc mmaps osFD for length bytes, read-only unless writable, and is
// responsible for closing osFD once mapped (only the mapping persists,
// per spec.md §4.2). Supplied by region_unix.go; unit tests may substitute
// a fake.
type MapFunc func(osFD int, length int64, writable bool) ([]byte, error)

// UnmapFunc tears down a previously mapped region.
type UnmapFunc func(base []byte) error

// LookupOrMmap returns the mapping for storeFD, mmapping osFD via mapFn on
// a first reference and incrementing the region's active count on every
// call (including the first). Callers must pair each call with exactly one
// Decrement.
func (t *Table) LookupOrMmap(storeFD uint64, osFD int, length int64, writable bool, mapFn MapFunc) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.regions[storeFD]; ok {
		r.activeCount++
		return r.base, nil
	}

	base, err := mapFn(osFD, length, writable)
	if err != nil {
		return nil, fmt.Errorf("mmaptbl: map store fd %d: %w", storeFD, err)
	}

	t.regions[storeFD] = &region{base: base, activeCount: 1}
	return base, nil
}

// Increment adds one reference to an already-mapped region. It is used
// when a second local object shares a backing region the table already
// holds open (e.g. a metadata segment reusing a data segment's mapping).
func (t *Table) Increment(storeFD uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.regions[storeFD]
	if !ok {
		return fmt.Errorf("mmaptbl: increment unknown store fd %d", storeFD)
	}
	r.activeCount++
	return nil
}

// Decrement removes one reference from storeFD's region, unmapping and
// removing the entry once the count reaches zero. A decrement taking the
// count below zero means the in-use table handed out more references than
// it tracked, which is a corrupted-bookkeeping condition; the caller
// reports that via its own fatal path rather than this package panicking
// on behalf of callers that might legitimately probe state first.
func (t *Table) Decrement(storeFD uint64, unmapFn UnmapFunc) (reachedZero bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.regions[storeFD]
	if !ok {
		return false, fmt.Errorf("mmaptbl: decrement unknown store fd %d", storeFD)
	}

	r.activeCount--
	if r.activeCount < 0 {
		return false, fmt.Errorf("%w: store fd %d", ErrNegativeRefcount, storeFD)
	}
	if r.activeCount > 0 {
		return false, nil
	}

	delete(t.regions, storeFD)
	if err := unmapFn(r.base); err != nil {
		return true, fmt.Errorf("mmaptbl: unmap store fd %d: %w", storeFD, err)
	}
	return true, nil
}

// Len returns the number of distinct mapped regions currently held.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.regions)
}

// TotalBytes returns the sum of all currently mapped regions' lengths.
func (t *Table) TotalBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total int64
	for _, r := range t.regions {
		total += int64(len(r.base))
	}
	return total
}
