package plasmatest

import (
	"fmt"
	"os"

	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// handleOne reads one frame and dispatches it, writing exactly one reply
// frame (Subscribe aside, which additionally registers the connection for
// pushed Notification frames).
func (s *Store) handleOne(c *wire.Conn) error {
	frame, err := c.Peek()
	if err != nil {
		return err
	}

	switch frame.Type {
	case wire.MsgConnect:
		var req wire.ConnectRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return c.Send(wire.MsgConnectReply, &wire.ConnectReply{Status: 0, StoreVersion: 1, StoreCapacity: 1 << 30})

	case wire.MsgCreate:
		var req wire.CreateRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return s.handleCreate(c, req)

	case wire.MsgSeal:
		var req wire.SealRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return s.handleSeal(c, req)

	case wire.MsgAbort:
		var req wire.AbortRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return s.handleAbort(c, req)

	case wire.MsgRelease:
		var req wire.ReleaseRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return c.Send(wire.MsgReleaseReply, &wire.ReleaseReply{Status: 0})

	case wire.MsgContains:
		var req wire.ContainsRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return s.handleContains(c, req)

	case wire.MsgGet:
		var req wire.GetRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return s.handleGet(c, req)

	case wire.MsgDelete:
		var req wire.DeleteRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return s.handleDelete(c, req)

	case wire.MsgEvict:
		var req wire.EvictRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return c.Send(wire.MsgEvictReply, &wire.EvictReply{Status: 0, NumEvicted: 0})

	case wire.MsgHash:
		var req wire.HashRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		return c.Send(wire.MsgHashReply, &wire.HashReply{Status: 0})

	case wire.MsgSubscribe:
		var req wire.SubscribeRequest
		if err := frame.Decode(&req); err != nil {
			return err
		}
		s.mu.Lock()
		s.notifees = append(s.notifees, c)
		s.mu.Unlock()
		return c.Send(wire.MsgSubscribeReply, &wire.SubscribeReply{Status: 0})

	default:
		return fmt.Errorf("plasmatest: unsupported message type %s", frame.Type)
	}
}

func (s *Store) handleCreate(c *wire.Conn, req wire.CreateRequest) error {
	f, err := os.CreateTemp("", "plasmatest-obj-*")
	if err != nil {
		return c.Send(wire.MsgCreateReply, &wire.CreateReply{Status: 1})
	}
	total := req.DataSize + req.MetadataSize
	if err := f.Truncate(total); err != nil {
		_ = f.Close()
		return c.Send(wire.MsgCreateReply, &wire.CreateReply{Status: 1})
	}

	s.mu.Lock()
	s.nextFD++
	storeFD := s.nextFD
	s.objects[req.ObjectID] = &object{
		file:         f,
		storeFD:      storeFD,
		dataSize:     req.DataSize,
		metadataSize: req.MetadataSize,
		deviceNum:    req.DeviceNum,
	}
	s.mu.Unlock()

	dup, err := dupFD(f)
	if err != nil {
		return c.Send(wire.MsgCreateReply, &wire.CreateReply{Status: 1})
	}
	return c.SendFD(wire.MsgCreateReply, &wire.CreateReply{Status: 0, StoreFD: storeFD, FDLength: total}, dup)
}

func (s *Store) handleSeal(c *wire.Conn, req wire.SealRequest) error {
	s.mu.Lock()
	obj, ok := s.objects[req.ObjectID]
	if ok {
		obj.sealed = true
	}
	notifees := append([]*wire.Conn(nil), s.notifees...)
	s.mu.Unlock()

	if !ok {
		return c.Send(wire.MsgSealReply, &wire.SealReply{Status: 1})
	}

	notif := wire.Notification{ObjectID: req.ObjectID, DataSize: obj.dataSize, MetadataSize: obj.metadataSize}
	for _, n := range notifees {
		_ = n.Send(wire.MsgNotification, &notif)
	}

	return c.Send(wire.MsgSealReply, &wire.SealReply{Status: 0})
}

func (s *Store) handleAbort(c *wire.Conn, req wire.AbortRequest) error {
	s.mu.Lock()
	obj, ok := s.objects[req.ObjectID]
	if ok {
		delete(s.objects, req.ObjectID)
	}
	s.mu.Unlock()

	if ok {
		_ = obj.file.Close()
		_ = os.Remove(obj.file.Name())
	}
	return c.Send(wire.MsgAbortReply, &wire.AbortReply{Status: 0})
}

func (s *Store) handleContains(c *wire.Conn, req wire.ContainsRequest) error {
	s.mu.Lock()
	obj, ok := s.objects[req.ObjectID]
	present := ok && obj.sealed
	s.mu.Unlock()
	return c.Send(wire.MsgContainsReply, &wire.ContainsReply{Status: 0, Present: present})
}

// handleGet answers a batched GetRequest: each requested id gets one slot
// in the reply, in the same order as the request, with a DataSize of -1
// for an id that is unknown or not yet sealed (this fake never blocks —
// it reports readiness as of the moment the request arrives). Ready
// slots' fds travel together as ancillary data, in request order.
func (s *Store) handleGet(c *wire.Conn, req wire.GetRequest) error {
	reply := wire.GetReply{
		Status:        0,
		ObjectIDs:     req.ObjectIDs,
		StoreFDs:      make([]uint64, len(req.ObjectIDs)),
		FDLengths:     make([]int64, len(req.ObjectIDs)),
		DataSizes:     make([]int64, len(req.ObjectIDs)),
		MetadataSizes: make([]int64, len(req.ObjectIDs)),
		DeviceNums:    make([]int32, len(req.ObjectIDs)),
	}

	var fds []int
	for i, oid := range req.ObjectIDs {
		s.mu.Lock()
		obj, ok := s.objects[oid]
		s.mu.Unlock()

		if !ok || !obj.sealed {
			reply.DataSizes[i] = -1
			continue
		}

		dup, err := dupFD(obj.file)
		if err != nil {
			reply.DataSizes[i] = -1
			continue
		}
		reply.StoreFDs[i] = obj.storeFD
		reply.FDLengths[i] = obj.dataSize + obj.metadataSize
		reply.DataSizes[i] = obj.dataSize
		reply.MetadataSizes[i] = obj.metadataSize
		reply.DeviceNums[i] = obj.deviceNum
		fds = append(fds, dup)
	}

	return c.SendFDs(wire.MsgGetReply, &reply, fds)
}

func (s *Store) handleDelete(c *wire.Conn, req wire.DeleteRequest) error {
	s.mu.Lock()
	obj, ok := s.objects[req.ObjectID]
	if ok {
		delete(s.objects, req.ObjectID)
	}
	s.mu.Unlock()

	if ok {
		_ = obj.file.Close()
		_ = os.Remove(obj.file.Name())
	}
	// Best-effort per spec.md: always Status 0.
	return c.Send(wire.MsgDeleteReply, &wire.DeleteReply{Status: 0})
}
