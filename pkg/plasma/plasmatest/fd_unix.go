//go:build unix

package plasmatest

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// dupFD returns a fresh fd for f's file, independent of f's own fd, for
// passing as SCM_RIGHTS ancillary data: the receiving client closes its
// copy once mapped (mmaptbl.Mmap), so the store's handle to the same
// temp file must stay open past that.
func dupFD(f *os.File) (int, error) {
	dup, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return -1, fmt.Errorf("dup fd: %w", err)
	}
	return dup, nil
}
