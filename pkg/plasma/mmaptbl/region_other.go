//go:build !unix

package mmaptbl

import "errors"

// ErrMmapUnsupported is returned by Mmap on platforms without POSIX mmap.
var ErrMmapUnsupported = errors.New("mmaptbl: mmap unsupported on this platform")

// Mmap always fails on non-Unix platforms.
func Mmap(osFD int, length int64, writable bool) ([]byte, error) {
	return nil, ErrMmapUnsupported
}

// Munmap always fails on non-Unix platforms.
func Munmap(base []byte) error {
	return ErrMmapUnsupported
}
