package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/arrowlake/plasma-go/internal/plog"
	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/lifecycle"
	"github.com/arrowlake/plasma-go/pkg/plasma/mmaptbl"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// Create allocates a new object of the given data/metadata sizes on the
// store and returns a Buffer over its (writable, unsealed) segments.
// Create is only legal while the object is Absent (lifecycle.OpCreate).
func (c *Client) Create(id plasma.ObjectID, dataSize, metadataSize int64, deviceNum int) (*plasma.Buffer, error) {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpCreate, id, state); err != nil {
		return nil, err
	}

	req := wire.CreateRequest{
		ObjectID:     wire.ObjectIDWire(id),
		DataSize:     dataSize,
		MetadataSize: metadataSize,
		DeviceNum:    int32(deviceNum),
	}
	if err := c.store.Send(wire.MsgCreate, &req); err != nil {
		err = plasma.TransportError("send Create", err)
		c.recordOp("create", start, err)
		return nil, err
	}

	var reply wire.CreateReply
	t, fd, err := c.store.RecvFD(&reply)
	if err != nil {
		err = plasma.TransportError("recv CreateReply", err)
		c.recordOp("create", start, err)
		return nil, err
	}
	if t != wire.MsgCreateReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected CreateReply, got %s", t))
		c.recordOp("create", start, err)
		return nil, err
	}
	if reply.Status != 0 {
		err = plasma.StateError("Create", id, fmt.Sprintf("store status %d (capacity?)", reply.Status))
		if reply.Status == statusOutOfCapacity {
			err = fmt.Errorf("%w: %v", plasma.ErrCapacity, err)
		}
		c.recordOp("create", start, err)
		return nil, err
	}

	obj := plasma.PlasmaObject{
		ID:           id,
		DataSize:     dataSize,
		MetadataSize: metadataSize,
		DeviceNum:    deviceNum,
		StoreFD:      reply.StoreFD,
	}

	var data, metadata []byte
	if deviceNum == 0 {
		base, mapErr := c.mmap.LookupOrMmap(reply.StoreFD, fd, reply.FDLength, true, mmaptbl.Mmap)
		if mapErr != nil {
			err = plasma.TransportError("mmap create segment", mapErr)
			c.recordOp("create", start, err)
			return nil, err
		}
		data = base[:dataSize]
		metadata = base[dataSize : dataSize+metadataSize]
	}

	c.inUse.BeginUse(obj, false)

	buf := plasma.NewBuffer(data, metadata, deviceNum, id, func() error {
		return c.releaseLocalRef(id)
	})

	c.log.Info("created object", plog.ObjectID(id.Bytes()), plog.DataSize(dataSize), plog.MetadataSize(metadataSize))
	c.recordOp("create", start, nil)
	return buf, nil
}

// statusOutOfCapacity is the store-side status code signaling a Create
// request could not be satisfied for lack of space.
const statusOutOfCapacity = 1

// Seal marks id read-only and visible to other clients, pushing a
// notification to subscribers. Seal is only legal from the Creating
// state.
func (c *Client) Seal(id plasma.ObjectID) error {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return err
	}

	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpSeal, id, state); err != nil {
		return err
	}

	req := wire.SealRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.store.Send(wire.MsgSeal, &req); err != nil {
		err = plasma.TransportError("send Seal", err)
		c.recordOp("seal", start, err)
		return err
	}
	var reply wire.SealReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv SealReply", err)
		c.recordOp("seal", start, err)
		return err
	}
	if t != wire.MsgSealReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected SealReply, got %s", t))
		c.recordOp("seal", start, err)
		return err
	}
	if reply.Status != 0 {
		err = plasma.StateError("Seal", id, fmt.Sprintf("store status %d", reply.Status))
		c.recordOp("seal", start, err)
		return err
	}

	c.inUse.Seal(id)
	c.log.Info("sealed object", plog.ObjectID(id.Bytes()))
	c.recordOp("seal", start, nil)
	return nil
}

// Abort cancels an unsealed Create, releasing the store-side allocation.
// Abort is only legal from the Creating state.
func (c *Client) Abort(id plasma.ObjectID) error {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return err
	}

	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpAbort, id, state); err != nil {
		return err
	}

	req := wire.AbortRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.store.Send(wire.MsgAbort, &req); err != nil {
		err = plasma.TransportError("send Abort", err)
		c.recordOp("abort", start, err)
		return err
	}
	var reply wire.AbortReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv AbortReply", err)
		c.recordOp("abort", start, err)
		return err
	}
	if t != wire.MsgAbortReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected AbortReply, got %s", t))
		c.recordOp("abort", start, err)
		return err
	}

	e, _ := c.inUse.Lookup(id)
	if _, endErr := c.inUse.EndUse(id); endErr != nil {
		c.log.Error("abort: end use", plog.ObjectID(id.Bytes()), plog.Err(endErr))
	}
	if e.Object.StoreFD != 0 && e.Object.DeviceNum == 0 {
		if _, err := c.mmap.Decrement(e.Object.StoreFD, mmaptbl.Munmap); err != nil {
			if errors.Is(err, mmaptbl.ErrNegativeRefcount) {
				plasma.Fatal("abort: unmap", plog.ObjectID(id.Bytes()), plog.Err(err))
			}
			c.log.Error("abort: unmap", plog.ObjectID(id.Bytes()), plog.Err(err))
		}
	}

	c.log.Info("aborted object", plog.ObjectID(id.Bytes()))
	c.recordOp("abort", start, nil)
	return nil
}
