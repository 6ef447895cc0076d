package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arrowlake/plasma-go/internal/plog"
	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/lifecycle"
	"github.com/arrowlake/plasma-go/pkg/plasma/mmaptbl"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// GetResult is one object's outcome from a batched Get call. Ready is
// false when the object was not sealed by the deadline; Buffer is nil in
// that case. The store signals this on the wire as DataSize == -1 for
// the corresponding slot, rather than failing the whole batch.
type GetResult struct {
	ObjectID plasma.ObjectID
	Buffer   *plasma.Buffer
	Ready    bool
}

// Get returns one GetResult per id in ids, blocking until every id is
// either sealed or ctx's deadline has passed. It issues at most one
// GetRequest round trip, covering only the ids this client doesn't already
// hold a sealed local reference to — the rest are satisfied with no
// round-trip at all. ctx is read only for its deadline: without one
// (context.Background(), for example) the request carries a timeout of -1
// and waits until the store replies; with one it carries the time
// remaining, zero once the deadline has passed. Get is legal from
// SealedInUse, Queued, or Absent for every id in the batch; only
// SealedInUse ids are answered locally, while Queued and Absent ids go to
// the store in the round trip.
func (c *Client) Get(ctx context.Context, ids []plasma.ObjectID) ([]GetResult, error) {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	results := make([]GetResult, len(ids))
	var pending []plasma.ObjectID
	var pendingIdx []int

	for i, id := range ids {
		state := lifecycle.Of(c.inUse, c.history, id)
		if err := lifecycle.Check(lifecycle.OpGet, id, state); err != nil {
			c.recordOp("get", start, err)
			return nil, err
		}

		// A local hit needs no round-trip at all.
		e, ok := c.inUse.Lookup(id)
		if !ok || !e.Sealed {
			pending = append(pending, id)
			pendingIdx = append(pendingIdx, i)
			continue
		}

		c.inUse.BeginUse(e.Object, true)
		buf := plasma.NewBuffer(nil, nil, e.Object.DeviceNum, id, func() error {
			return c.releaseLocalRef(id)
		})
		if e.Object.DeviceNum == 0 && e.Object.StoreFD != 0 {
			base, err := c.mmap.LookupOrMmap(e.Object.StoreFD, -1, 0, false, reuseOnly)
			if err != nil {
				// A sealed, locally in-use object's segments must already
				// be mapped — BeginUse above only ever runs after a
				// successful mmap (Create or a prior Get). A miss here
				// means this client's mmap table lost an entry the in-use
				// table still thinks is live.
				plasma.Fatal("in-use object missing mmap entry", plog.ObjectID(id.Bytes()), plog.Err(err))
			}
			// The entry already pins its region once; a further local
			// reference gives back the count LookupOrMmap just took.
			if _, err := c.mmap.Decrement(e.Object.StoreFD, mmaptbl.Munmap); err != nil {
				plasma.Fatal("in-use object missing mmap entry", plog.ObjectID(id.Bytes()), plog.Err(err))
			}
			buf.Data = base[:e.Object.DataSize]
			buf.Metadata = base[e.Object.DataSize : e.Object.DataSize+e.Object.MetadataSize]
		}
		results[i] = GetResult{ObjectID: id, Buffer: buf, Ready: true}
	}

	if len(pending) == 0 {
		c.recordOp("get", start, nil)
		return results, nil
	}

	timeoutMs := int64(-1)
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		timeoutMs = remaining.Milliseconds()
	}

	wireIDs := make([]wire.ObjectIDWire, len(pending))
	for i, id := range pending {
		wireIDs[i] = wire.ObjectIDWire(id)
	}

	req := wire.GetRequest{ObjectIDs: wireIDs, TimeoutMs: timeoutMs}
	if err := c.store.Send(wire.MsgGet, &req); err != nil {
		err = plasma.TransportError("send Get", err)
		c.recordOp("get", start, err)
		return nil, err
	}

	var reply wire.GetReply
	t, fds, err := c.store.RecvFDs(&reply)
	if err != nil {
		err = plasma.TransportError("recv GetReply", err)
		c.recordOp("get", start, err)
		return nil, err
	}
	if t != wire.MsgGetReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected GetReply, got %s", t))
		c.recordOp("get", start, err)
		return nil, err
	}
	if reply.Status != 0 {
		err = plasma.NotFoundError(pending[0])
		c.recordOp("get", start, err)
		return nil, err
	}
	if len(reply.DataSizes) != len(pending) {
		err = plasma.ProtocolError("GetReply result count mismatch")
		c.recordOp("get", start, err)
		return nil, err
	}

	fdIdx := 0
	for i, id := range pending {
		resultIdx := pendingIdx[i]

		if reply.DataSizes[i] < 0 {
			results[resultIdx] = GetResult{ObjectID: id, Ready: false}
			continue
		}

		obj := plasma.PlasmaObject{
			ID:           id,
			DataSize:     reply.DataSizes[i],
			MetadataSize: reply.MetadataSizes[i],
			DeviceNum:    int(reply.DeviceNums[i]),
			StoreFD:      reply.StoreFDs[i],
		}

		var data, metadata []byte
		if obj.DeviceNum == 0 {
			fd := -1
			if fdIdx < len(fds) {
				fd = fds[fdIdx]
				fdIdx++
			}
			base, mapErr := c.mmap.LookupOrMmap(reply.StoreFDs[i], fd, reply.FDLengths[i], false, mmaptbl.Mmap)
			if mapErr != nil {
				err = plasma.TransportError("mmap get segment", mapErr)
				c.recordOp("get", start, err)
				return nil, err
			}
			data = base[:reply.DataSizes[i]]
			metadata = base[reply.DataSizes[i] : reply.DataSizes[i]+reply.MetadataSizes[i]]
		}

		// BeginUse takes a Queued id out of history without unmapping;
		// give back the region count its history entry held.
		if hobj, queued := c.history.Lookup(id); queued && hobj.DeviceNum == 0 && hobj.StoreFD != 0 {
			if _, derr := c.mmap.Decrement(hobj.StoreFD, mmaptbl.Munmap); errors.Is(derr, mmaptbl.ErrNegativeRefcount) {
				plasma.Fatal("get: release queued region count", plog.ObjectID(id.Bytes()), plog.Err(derr))
			} else if derr != nil {
				c.log.Error("get: release queued region count", plog.ObjectID(id.Bytes()), plog.Err(derr))
			}
		}
		c.inUse.BeginUse(obj, true)
		buf := plasma.NewBuffer(data, metadata, obj.DeviceNum, id, func() error {
			return c.releaseLocalRef(id)
		})

		opCtx := plog.WithContext(ctx, c.lc.WithOp("Get", id.String()))
		plog.InfoCtx(opCtx, "got object", plog.DataSize(reply.DataSizes[i]))
		results[resultIdx] = GetResult{ObjectID: id, Buffer: buf, Ready: true}
	}

	c.recordOp("get", start, nil)
	return results, nil
}

// statusTimedOut is the store-side status code signaling a Wait deadline
// elapsed before enough objects were sealed; Get never returns it — a Get
// deadline surfaces per-object via GetResult.Ready instead.
const statusTimedOut = 2

// reuseOnly is a MapFunc that never mmaps; it is passed to LookupOrMmap
// only when the caller already knows the region is mapped (a local
// Get hit) and is relying on the cache path, never the miss path.
func reuseOnly(osFD int, length int64, writable bool) ([]byte, error) {
	return nil, fmt.Errorf("mmaptbl: region not already mapped")
}
