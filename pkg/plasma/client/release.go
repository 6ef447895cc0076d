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

// releaseLocalRef is the shared implementation behind Buffer.Release: it
// ends this client's local reference to id and, once the reference count
// reaches zero, tells the store to decrement its own refcount too.
// Release is only legal on a sealed, in-use object (lifecycle.OpRelease).
func (c *Client) releaseLocalRef(id plasma.ObjectID) error {
	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpRelease, id, state); err != nil {
		return err
	}

	reachedZero, err := c.inUse.EndUse(id)
	if err != nil {
		return err
	}
	if !reachedZero {
		return nil
	}

	req := wire.ReleaseRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.store.Send(wire.MsgRelease, &req); err != nil {
		return plasma.TransportError("send Release", err)
	}
	var reply wire.ReleaseReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		return plasma.TransportError("recv ReleaseReply", err)
	}
	if t != wire.MsgReleaseReply {
		return plasma.ProtocolError(fmt.Sprintf("expected ReleaseReply, got %s", t))
	}

	c.log.Info("released object", plog.ObjectID(id.Bytes()))
	return nil
}

// Contains reports whether the store holds id as a sealed object, without
// blocking and without altering this client's reference count. A local
// SealedInUse entry answers true with no round-trip; for an Absent id
// Contains asks the store directly, since this client having no local
// bookkeeping for id doesn't mean the store doesn't know it. Contains is
// legal only from Absent or SealedInUse (lifecycle.OpContains): a Creating
// or Queued id is rejected with a StateError.
func (c *Client) Contains(id plasma.ObjectID) (bool, error) {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return false, err
	}

	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpContains, id, state); err != nil {
		return false, err
	}
	if state == lifecycle.SealedInUse {
		c.recordOp("contains", start, nil)
		return true, nil
	}

	req := wire.ContainsRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.store.Send(wire.MsgContains, &req); err != nil {
		err = plasma.TransportError("send Contains", err)
		c.recordOp("contains", start, err)
		return false, err
	}
	var reply wire.ContainsReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv ContainsReply", err)
		c.recordOp("contains", start, err)
		return false, err
	}
	if t != wire.MsgContainsReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected ContainsReply, got %s", t))
		c.recordOp("contains", start, err)
		return false, err
	}

	c.recordOp("contains", start, nil)
	return reply.Present, nil
}

// Delete asks the store to remove id. Per spec.md, this is best-effort:
// the store silently ignores a Delete for an object that is absent,
// unsealed, or still in use, so Delete never returns ErrNotFound. Delete
// is legal once the object is Queued or Absent from this client's point
// of view — it does not force a Release first.
func (c *Client) Delete(id plasma.ObjectID) error {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return err
	}

	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpDelete, id, state); err != nil {
		return err
	}

	req := wire.DeleteRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.store.Send(wire.MsgDelete, &req); err != nil {
		err = plasma.TransportError("send Delete", err)
		c.recordOp("delete", start, err)
		return err
	}
	var reply wire.DeleteReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv DeleteReply", err)
		c.recordOp("delete", start, err)
		return err
	}
	if t != wire.MsgDeleteReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected DeleteReply, got %s", t))
		c.recordOp("delete", start, err)
		return err
	}

	if obj, ok := c.history.Drop(id); ok {
		if obj.StoreFD != 0 && obj.DeviceNum == 0 {
			if _, derr := c.mmap.Decrement(obj.StoreFD, mmaptbl.Munmap); derr != nil {
				if errors.Is(derr, mmaptbl.ErrNegativeRefcount) {
					plasma.Fatal("delete: unmap", plog.ObjectID(id.Bytes()), plog.Err(derr))
				}
				c.log.Error("delete: unmap", plog.ObjectID(id.Bytes()), plog.Err(derr))
			}
		}
	}

	c.log.Info("deleted object", plog.ObjectID(id.Bytes()))
	c.recordOp("delete", start, nil)
	return nil
}

// Evict asks the store to evict up to numBytes of unreferenced objects.
// Eviction policy is entirely store-side (non-goal: this client never
// decides what to evict); Evict returns how many bytes the store actually
// reclaimed.
func (c *Client) Evict(numBytes int64) (int64, error) {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return 0, err
	}

	req := wire.EvictRequest{NumBytes: numBytes}
	if err := c.store.Send(wire.MsgEvict, &req); err != nil {
		err = plasma.TransportError("send Evict", err)
		c.recordOp("evict", start, err)
		return 0, err
	}
	var reply wire.EvictReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv EvictReply", err)
		c.recordOp("evict", start, err)
		return 0, err
	}
	if t != wire.MsgEvictReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected EvictReply, got %s", t))
		c.recordOp("evict", start, err)
		return 0, err
	}

	c.recordOp("evict", start, nil)
	return reply.NumEvicted, nil
}

// Hash returns id's content hash as computed by the store. Hash is only
// legal on a sealed object (SealedInUse or Queued).
func (c *Client) Hash(id plasma.ObjectID) ([32]byte, error) {
	start := time.Now()
	var zero [32]byte
	if err := c.checkClosed(); err != nil {
		return zero, err
	}

	state := lifecycle.Of(c.inUse, c.history, id)
	if err := lifecycle.Check(lifecycle.OpHash, id, state); err != nil {
		return zero, err
	}

	req := wire.HashRequest{ObjectID: wire.ObjectIDWire(id)}
	if err := c.store.Send(wire.MsgHash, &req); err != nil {
		err = plasma.TransportError("send Hash", err)
		c.recordOp("hash", start, err)
		return zero, err
	}
	var reply wire.HashReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv HashReply", err)
		c.recordOp("hash", start, err)
		return zero, err
	}
	if t != wire.MsgHashReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected HashReply, got %s", t))
		c.recordOp("hash", start, err)
		return zero, err
	}
	if reply.Status != 0 {
		err = plasma.NotFoundError(id)
		c.recordOp("hash", start, err)
		return zero, err
	}

	c.recordOp("hash", start, nil)
	return reply.Hash, nil
}
