//go:build unix

package mmaptbl

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// Mmap maps osFD for length bytes MAP_SHARED, PROT_READ|PROT_WRITE for a
// writable (creator) mapping or PROT_READ otherwise, then closes osFD —
// mirroring the teacher's MmapPersister.createNew/openExisting lifecycle,
// generalized from "one big append-log mapping" to "one mapping per
// store-assigned fd".
func Mmap(osFD int, length int64, writable bool) ([]byte, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}

	data, err := unix.Mmap(osFD, 0, int(length), prot, unix.MAP_SHARED)
	if err != nil {
		_ = syscall.Close(osFD)
		return nil, fmt.Errorf("mmap: %w", err)
	}

	// Only the mapping persists; the client's copy of the fd is no longer
	// needed once it is mapped (spec.md §4.2).
	if err := syscall.Close(osFD); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("close os fd after mmap: %w", err)
	}

	return data, nil
}

// Munmap tears down a region mapped by Mmap.
func Munmap(base []byte) error {
	if err := unix.Munmap(base); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
