package wire

import "net"

// FDChannel passes zero or more file descriptors alongside a byte payload
// over a Unix domain socket, via SCM_RIGHTS ancillary data. The store hands
// the client an open fd for each object's backing shared-memory segment
// this way; the client mmaps it and closes its own copy once mapped. A
// batched GetReply carries one fd per ready object in the same frame, so
// the channel is plural-first: SendFD/RecvFD (single fd) are callers'
// shorthand for the one-or-zero-fd case, built on top of these.
type FDChannel interface {
	// SendFDs writes payload on conn with fds attached as ancillary data.
	SendFDs(conn *net.UnixConn, payload []byte, fds []int) error

	// RecvFDs reads one frame from conn, returning its payload and any
	// fds that were attached (nil if none).
	RecvFDs(conn *net.UnixConn, maxPayload int) (payload []byte, fds []int, err error)
}
