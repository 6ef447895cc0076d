package client

import (
	"fmt"
	"net"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// Notifier delivers seal/delete notifications pushed by the store on a
// dedicated connection opened by Subscribe. It is the only part of this
// client's surface expected to be polled alongside other file descriptors
// by a caller's own event loop — see Notifier.Fd.
type Notifier struct {
	conn *wire.Conn
}

// Subscribe opens a second connection to the store's socket and asks it
// to push a Notification frame every time any object is sealed or
// deleted. The notification stream is the one exception to the "not
// pipelined" rule: it is a one-way push, never a request/reply.
func (c *Client) Subscribe() (*Notifier, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	raw, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: c.cfg.StoreSocketPath, Net: "unix"})
	if err != nil {
		return nil, plasma.ConnectionError(c.cfg.StoreSocketPath, err)
	}
	conn := wire.NewConn(raw, c.cfg.MaxFrameBytes)

	req := wire.SubscribeRequest{}
	if err := conn.Send(wire.MsgSubscribe, &req); err != nil {
		_ = conn.Close()
		return nil, plasma.TransportError("send Subscribe", err)
	}
	var reply wire.SubscribeReply
	t, err := conn.Recv(&reply)
	if err != nil {
		_ = conn.Close()
		return nil, plasma.TransportError("recv SubscribeReply", err)
	}
	if t != wire.MsgSubscribeReply || reply.Status != 0 {
		_ = conn.Close()
		return nil, plasma.ProtocolError(fmt.Sprintf("subscribe rejected: type=%s status=%d", t, reply.Status))
	}

	return &Notifier{conn: conn}, nil
}

// GetNotification blocks until the store pushes a notification for a
// sealed or deleted object. A DataSize of -1 on the returned
// PlasmaObject signals a deletion rather than a seal, matching the wire
// frame shape exactly (spec.md §6). Must not be called concurrently with
// another GetNotification on the same Notifier.
func (n *Notifier) GetNotification() (plasma.PlasmaObject, error) {
	var msg wire.Notification
	t, err := n.conn.Recv(&msg)
	if err != nil {
		return plasma.PlasmaObject{}, plasma.TransportError("recv Notification", err)
	}
	if t != wire.MsgNotification {
		return plasma.PlasmaObject{}, plasma.ProtocolError(fmt.Sprintf("expected Notification, got %s", t))
	}

	return plasma.PlasmaObject{
		ID:           plasma.ObjectID(msg.ObjectID),
		DataSize:     msg.DataSize,
		MetadataSize: msg.MetadataSize,
	}, nil
}

// Fd returns the raw file descriptor backing this notifier's connection,
// for callers that want to multiplex it with other descriptors via
// golang.org/x/sys/unix.Poll rather than block inside GetNotification
// (spec.md §5: the library exposes the raw descriptor instead of hiding
// it behind its own event loop).
func (n *Notifier) Fd() (uintptr, error) {
	raw, err := n.conn.Raw().SyscallConn()
	if err != nil {
		return 0, plasma.TransportError("get notifier syscall conn", err)
	}
	var fd uintptr
	ctrlErr := raw.Control(func(f uintptr) { fd = f })
	if ctrlErr != nil {
		return 0, plasma.TransportError("control notifier fd", ctrlErr)
	}
	return fd, nil
}

// Close closes the notification connection.
func (n *Notifier) Close() error {
	return n.conn.Close()
}
