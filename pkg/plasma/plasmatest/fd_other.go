//go:build !unix

package plasmatest

import (
	"errors"
	"os"
)

// ErrFDPassingUnsupported mirrors wire.ErrFDPassingUnsupported: this fake
// store can't dup an fd for SCM_RIGHTS on a platform without it either.
var ErrFDPassingUnsupported = errors.New("plasmatest: fd passing unsupported on this platform")

func dupFD(f *os.File) (int, error) {
	return -1, ErrFDPassingUnsupported
}
