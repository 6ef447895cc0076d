package mmaptbl

import (
	"errors"
	"testing"
)

func fakeMapFn(mapped *int) MapFunc {
	return func(osFD int, length int64, writable bool) ([]byte, error) {
		*mapped++
		return make([]byte, length), nil
	}
}

func TestLookupOrMmapMapsOnce(t *testing.T) {
	tbl := New()
	var mapped int

	b1, err := tbl.LookupOrMmap(1, 10, 4096, true, fakeMapFn(&mapped))
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	b2, err := tbl.LookupOrMmap(1, 10, 4096, true, fakeMapFn(&mapped))
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	if mapped != 1 {
		t.Fatalf("expected mmap called once, got %d", mapped)
	}
	if &b1[0] != &b2[0] {
		t.Fatalf("expected same backing array on cache hit")
	}
	if tbl.Len() != 1 {
		t.Fatalf("expected 1 region, got %d", tbl.Len())
	}
}

func TestDecrementUnmapsAtZero(t *testing.T) {
	tbl := New()
	var mapped int

	if _, err := tbl.LookupOrMmap(1, 10, 100, true, fakeMapFn(&mapped)); err != nil {
		t.Fatalf("lookup 1: %v", err)
	}
	if _, err := tbl.LookupOrMmap(1, 10, 100, true, fakeMapFn(&mapped)); err != nil {
		t.Fatalf("lookup 2: %v", err)
	}

	var unmapped int
	unmapFn := func(base []byte) error { unmapped++; return nil }

	done, err := tbl.Decrement(1, unmapFn)
	if err != nil {
		t.Fatalf("decrement 1: %v", err)
	}
	if done {
		t.Fatalf("expected region still referenced after first decrement")
	}

	done, err = tbl.Decrement(1, unmapFn)
	if err != nil {
		t.Fatalf("decrement 2: %v", err)
	}
	if !done {
		t.Fatalf("expected region unmapped after second decrement")
	}
	if unmapped != 1 {
		t.Fatalf("expected unmap called once, got %d", unmapped)
	}
	if tbl.Len() != 0 {
		t.Fatalf("expected 0 regions after unmap, got %d", tbl.Len())
	}
}

func TestDecrementUnknownFD(t *testing.T) {
	tbl := New()
	_, err := tbl.Decrement(99, func([]byte) error { return nil })
	if err == nil {
		t.Fatal("expected error decrementing unknown store fd")
	}
}

func TestDecrementBelowZero(t *testing.T) {
	tbl := New()
	var mapped int
	if _, err := tbl.LookupOrMmap(1, 10, 100, true, fakeMapFn(&mapped)); err != nil {
		t.Fatalf("lookup: %v", err)
	}

	unmapFn := func([]byte) error { return nil }
	if _, err := tbl.Decrement(1, unmapFn); err != nil {
		t.Fatalf("decrement 1: %v", err)
	}
	if _, err := tbl.Decrement(1, unmapFn); !errors.Is(err, ErrNegativeRefcount) {
		t.Fatalf("expected ErrNegativeRefcount on decrement below zero, got %v", err)
	}
}

func TestTotalBytes(t *testing.T) {
	tbl := New()
	var mapped int

	if _, err := tbl.LookupOrMmap(1, 10, 4096, true, fakeMapFn(&mapped)); err != nil {
		t.Fatalf("lookup 1: %v", err)
	}
	if _, err := tbl.LookupOrMmap(2, 11, 8192, true, fakeMapFn(&mapped)); err != nil {
		t.Fatalf("lookup 2: %v", err)
	}

	if got := tbl.TotalBytes(); got != 4096+8192 {
		t.Fatalf("expected 12288 total bytes, got %d", got)
	}
}
