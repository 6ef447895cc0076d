package client

import (
	"context"
	"fmt"
	"time"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/lifecycle"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// WaitResult reports where one requested object was found.
type WaitResult struct {
	ObjectID plasma.ObjectID
	Location ObjectLocation
}

// ObjectLocation mirrors wire.ObjectLocation as a client-facing type so
// callers never need to import pkg/plasma/wire directly.
type ObjectLocation int32

const (
	LocationNonexistent = ObjectLocation(wire.LocationNonexistent)
	LocationLocal       = ObjectLocation(wire.LocationLocal)
	LocationRemote      = ObjectLocation(wire.LocationRemote)
)

// WaitQuery selects whether Wait considers only objects sealed in this
// client's local store, or any reachable through the manager.
type WaitQuery int32

const (
	WaitLocal    = WaitQuery(wire.WaitQueryLocal)
	WaitAnywhere = WaitQuery(wire.WaitQueryAnywhere)
)

// Wait blocks until numReturns of ids become ready (sealed, and for
// WaitAnywhere possibly remote) or ctx is done, and reports which ones and
// where. WaitAnywhere always goes to the manager connection, since only
// the manager knows about objects reachable on other stores; absent a
// manager connection it returns ErrNoManager immediately. WaitLocal needs
// no manager at all — per spec.md §4.6, "LOCAL" means this client's own
// store connection, so it is served by waitLocal below instead.
func (c *Client) Wait(ctx context.Context, ids []plasma.ObjectID, numReturns int, query WaitQuery) ([]WaitResult, error) {
	start := time.Now()
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	if query == WaitLocal {
		return c.waitLocal(ctx, ids, numReturns, start)
	}
	if c.manager == nil {
		return nil, plasma.ErrNoManager
	}

	timeoutMs := int64(-1)
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining < 0 {
			remaining = 0
		}
		timeoutMs = remaining.Milliseconds()
	}

	wireIDs := make([]wire.ObjectIDWire, len(ids))
	for i, id := range ids {
		wireIDs[i] = wire.ObjectIDWire(id)
	}

	req := wire.WaitRequest{
		ObjectIDs:  wireIDs,
		NumReturns: int32(numReturns),
		TimeoutMs:  timeoutMs,
		Query:      wire.WaitQueryType(query),
	}
	if err := c.manager.Send(wire.MsgWait, &req); err != nil {
		err = plasma.TransportError("send Wait", err)
		c.recordOp("wait", start, err)
		return nil, err
	}

	var reply wire.WaitReply
	t, err := c.manager.Recv(&reply)
	if err != nil {
		err = plasma.TransportError("recv WaitReply", err)
		c.recordOp("wait", start, err)
		return nil, err
	}
	if t != wire.MsgWaitReply {
		err = plasma.ProtocolError(fmt.Sprintf("expected WaitReply, got %s", t))
		c.recordOp("wait", start, err)
		return nil, err
	}
	if reply.Status == statusTimedOut {
		err = plasma.ErrTimeout
		c.recordOp("wait", start, err)
		return nil, err
	}
	if len(reply.ObjectIDs) != len(reply.Locations) {
		err = plasma.ProtocolError("WaitReply object/location count mismatch")
		c.recordOp("wait", start, err)
		return nil, err
	}

	results := make([]WaitResult, len(reply.ObjectIDs))
	for i, wid := range reply.ObjectIDs {
		results[i] = WaitResult{
			ObjectID: plasma.ObjectID(wid),
			Location: ObjectLocation(reply.Locations[i]),
		}
	}

	c.recordOp("wait", start, nil)
	return results, nil
}

// waitLocalPollInterval is how often waitLocal re-checks readiness between
// a negative poll and ctx being done.
const waitLocalPollInterval = 10 * time.Millisecond

// waitLocal serves WaitLocal without a manager connection: it repeatedly
// checks this client's own bookkeeping, falling back to a Contains
// round-trip against the store for ids this client holds no local record
// of, until numReturns of ids are accounted for or ctx is done.
func (c *Client) waitLocal(ctx context.Context, ids []plasma.ObjectID, numReturns int, start time.Time) ([]WaitResult, error) {
	ticker := time.NewTicker(waitLocalPollInterval)
	defer ticker.Stop()

	for {
		results, ready, err := c.pollLocalReadiness(ids)
		if err != nil {
			c.recordOp("wait", start, err)
			return nil, err
		}
		if ready >= numReturns {
			c.recordOp("wait", start, nil)
			return results, nil
		}

		select {
		case <-ctx.Done():
			err := plasma.ErrTimeout
			c.recordOp("wait", start, err)
			return nil, err
		case <-ticker.C:
		}
	}
}

// pollLocalReadiness reports, for each id, whether this client already
// considers it sealed (SealedInUse/Queued, no round-trip needed), or else
// asks the store via Contains — an object this client is itself still
// Creating is reported not-ready without a round-trip, since Contains is
// illegal from Creating (only this client can Seal or Abort its own
// in-progress create).
func (c *Client) pollLocalReadiness(ids []plasma.ObjectID) ([]WaitResult, int, error) {
	results := make([]WaitResult, 0, len(ids))
	ready := 0
	for _, id := range ids {
		switch lifecycle.Of(c.inUse, c.history, id) {
		case lifecycle.SealedInUse, lifecycle.Queued:
			results = append(results, WaitResult{ObjectID: id, Location: LocationLocal})
			ready++
			continue
		case lifecycle.Creating:
			results = append(results, WaitResult{ObjectID: id, Location: LocationNonexistent})
			continue
		}

		present, err := c.Contains(id)
		if err != nil {
			return nil, 0, err
		}
		if present {
			results = append(results, WaitResult{ObjectID: id, Location: LocationLocal})
			ready++
			continue
		}
		results = append(results, WaitResult{ObjectID: id, Location: LocationNonexistent})
	}
	return results, ready, nil
}
