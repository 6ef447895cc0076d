package client

import (
	"fmt"
	"time"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// ObjectStatus reports one object's cluster-wide status as known by the
// manager.
type ObjectStatus struct {
	ObjectID plasma.ObjectID
	Location ObjectLocation
	DataSize int64
}

// Fetch asks the manager to pull a remote object into the local store.
// Fetch is asynchronous: completion is observed via Wait or Get, not this
// call's return. Fetch returns ErrNoManager if no manager connection was
// configured at Connect.
func (c *Client) Fetch(id plasma.ObjectID) error {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return err
	}
	if c.manager == nil {
		return plasma.ErrNoManager
	}

	req := wire.FetchRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.manager.Send(wire.MsgFetch, &req); err != nil {
		err = plasma.TransportError("send Fetch", err)
		c.recordOp("fetch", start, err)
		return err
	}
	var reply wire.FetchReply
	t, err := c.manager.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv FetchReply", err)
		c.recordOp("fetch", start, err)
		return err
	}
	if t != wire.MsgFetchReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected FetchReply, got %s", t))
		c.recordOp("fetch", start, err)
		return err
	}
	if reply.Status != 0 {
		err = plasma.NotFoundError(id)
		c.recordOp("fetch", start, err)
		return err
	}

	c.recordOp("fetch", start, nil)
	return nil
}

// Transfer asks the manager to push id to a remote store at addr:port.
// Transfer returns ErrNoManager if no manager connection was configured.
func (c *Client) Transfer(id plasma.ObjectID, addr string, port int) error {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return err
	}
	if c.manager == nil {
		return plasma.ErrNoManager
	}

	req := wire.TransferRequest{ObjectID: wire.ObjectIDWire(id), Addr: addr, Port: int32(port)}
	if err := c.manager.Send(wire.MsgTransfer, &req); err != nil {
		err = plasma.TransportError("send Transfer", err)
		c.recordOp("transfer", start, err)
		return err
	}
	var reply wire.TransferReply
	t, err := c.manager.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv TransferReply", err)
		c.recordOp("transfer", start, err)
		return err
	}
	if t != wire.MsgTransferReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected TransferReply, got %s", t))
		c.recordOp("transfer", start, err)
		return err
	}
	if reply.Status != 0 {
		err = plasma.NotFoundError(id)
		c.recordOp("transfer", start, err)
		return err
	}

	c.recordOp("transfer", start, nil)
	return nil
}

// Info asks the manager for cluster-wide status of ids. Info returns
// ErrNoManager if no manager connection was configured.
func (c *Client) Info(ids []plasma.ObjectID) ([]ObjectStatus, error) {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if c.manager == nil {
		return nil, plasma.ErrNoManager
	}

	wireIDs := make([]wire.ObjectIDWire, len(ids))
	for i, id := range ids {
		wireIDs[i] = wire.ObjectIDWire(id)
	}

	req := wire.InfoRequest{ObjectIDs: wireIDs}
	if err := c.manager.Send(wire.MsgInfo, &req); err != nil {
		err = plasma.TransportError("send Info", err)
		c.recordOp("info", start, err)
		return nil, err
	}
	var reply wire.InfoReply
	t, err := c.manager.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv InfoReply", err)
		c.recordOp("info", start, err)
		return nil, err
	}
	if t != wire.MsgInfoReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected InfoReply, got %s", t))
		c.recordOp("info", start, err)
		return nil, err
	}

	statuses := make([]ObjectStatus, len(reply.Infos))
	for i, info := range reply.Infos {
		statuses[i] = ObjectStatus{
			ObjectID: plasma.ObjectID(info.ObjectID),
			Location: ObjectLocation(info.Location),
			DataSize: info.DataSize,
		}
	}

	c.recordOp("info", start, nil)
	return statuses, nil
}
