//go:build unix

package wire

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// maxSCMRightsFDs bounds the ancillary-data buffer sized to receive a
// batched GetReply's fds. Wait/Get batches are request-bounded by the
// caller's own ObjectIDs slice, not by this constant; it is only an
// upper bound on how many fds a single incoming frame may carry.
const maxSCMRightsFDs = 1024

// unixFDChannel implements FDChannel using raw unix.ReadMsgUnix/
// WriteMsgUnix, mirroring the teacher's use of golang.org/x/sys/unix for
// direct syscalls in its mmap persister — extended here to the one
// syscall family (SCM_RIGHTS) that persister never needed.
type unixFDChannel struct{}

// NewFDChannel returns the platform's FDChannel implementation.
func NewFDChannel() FDChannel {
	return unixFDChannel{}
}

func (unixFDChannel) SendFDs(conn *net.UnixConn, payload []byte, fds []int) error {
	var rights []byte
	if len(fds) > 0 {
		rights = unix.UnixRights(fds...)
	}
	n, oobn, err := conn.WriteMsgUnix(payload, rights, nil)
	if err != nil {
		return fmt.Errorf("write msg unix: %w", err)
	}
	if n != len(payload) || oobn != len(rights) {
		return fmt.Errorf("short write: %d/%d bytes, %d/%d oob", n, len(payload), oobn, len(rights))
	}
	return nil
}

func (unixFDChannel) RecvFDs(conn *net.UnixConn, maxPayload int) ([]byte, []int, error) {
	payload := make([]byte, maxPayload)
	oob := make([]byte, unix.CmsgSpace(4*maxSCMRightsFDs))

	n, oobn, _, _, err := conn.ReadMsgUnix(payload, oob)
	if err != nil {
		return nil, nil, fmt.Errorf("read msg unix: %w", err)
	}

	var fds []int
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
		if err != nil {
			return nil, nil, fmt.Errorf("parse socket control message: %w", err)
		}
		for _, cmsg := range cmsgs {
			f, err := unix.ParseUnixRights(&cmsg)
			if err != nil {
				continue
			}
			fds = append(fds, f...)
		}
	}

	return payload[:n], fds, nil
}
