package plasmatest_test

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/arrowlake/plasma-go/pkg/plasma/plasmatest"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

func dial(t *testing.T, addr string) *wire.Conn {
	t.Helper()
	raw, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: addr, Net: "unix"})
	if err != nil {
		t.Fatalf("dial store: %v", err)
	}
	return wire.NewConn(raw, wire.DefaultMaxFrameBytes)
}

func closeFD(fd int) {
	_ = os.NewFile(uintptr(fd), "").Close()
}

func TestStoreConnectCreateSealGet(t *testing.T) {
	store, err := plasmatest.NewStore(filepath.Join(t.TempDir(), "store.sock"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	c := dial(t, store.Addr())
	defer c.Close()

	if err := c.Send(wire.MsgConnect, &wire.ConnectRequest{ClientVersion: 1}); err != nil {
		t.Fatalf("send Connect: %v", err)
	}
	var connReply wire.ConnectReply
	typ, err := c.Recv(&connReply)
	if err != nil || typ != wire.MsgConnectReply || connReply.Status != 0 {
		t.Fatalf("Connect handshake failed: typ=%s err=%v reply=%+v", typ, err, connReply)
	}

	id := wire.ObjectIDWire{9}
	if err := c.Send(wire.MsgCreate, &wire.CreateRequest{ObjectID: id, DataSize: 10, MetadataSize: 2}); err != nil {
		t.Fatalf("send Create: %v", err)
	}
	var createReply wire.CreateReply
	typ, fd, err := c.RecvFD(&createReply)
	if err != nil || typ != wire.MsgCreateReply || createReply.Status != 0 {
		t.Fatalf("Create failed: typ=%s err=%v reply=%+v", typ, err, createReply)
	}
	if fd < 0 {
		t.Fatal("expected a valid fd from CreateReply")
	}
	closeFD(fd)

	if err := c.Send(wire.MsgSeal, &wire.SealRequest{ObjectID: id}); err != nil {
		t.Fatalf("send Seal: %v", err)
	}
	var sealReply wire.SealReply
	typ, err = c.Recv(&sealReply)
	if err != nil || typ != wire.MsgSealReply || sealReply.Status != 0 {
		t.Fatalf("Seal failed: typ=%s err=%v reply=%+v", typ, err, sealReply)
	}

	if err := c.Send(wire.MsgGet, &wire.GetRequest{ObjectIDs: []wire.ObjectIDWire{id}, TimeoutMs: -1}); err != nil {
		t.Fatalf("send Get: %v", err)
	}
	var getReply wire.GetReply
	var fds []int
	typ, fds, err = c.RecvFDs(&getReply)
	if err != nil || typ != wire.MsgGetReply || getReply.Status != 0 {
		t.Fatalf("Get failed: typ=%s err=%v reply=%+v", typ, err, getReply)
	}
	if len(getReply.DataSizes) != 1 || getReply.DataSizes[0] != 10 || getReply.MetadataSizes[0] != 2 {
		t.Fatalf("unexpected sizes in GetReply: %+v", getReply)
	}
	if len(fds) != 1 || fds[0] < 0 {
		t.Fatalf("expected one fd in GetReply, got %v", fds)
	}
	closeFD(fds[0])
}

func TestStoreGetOnUnknownObjectReportsNotReady(t *testing.T) {
	store, err := plasmatest.NewStore(filepath.Join(t.TempDir(), "store.sock"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	c := dial(t, store.Addr())
	defer c.Close()

	id := wire.ObjectIDWire{1}
	if err := c.Send(wire.MsgGet, &wire.GetRequest{ObjectIDs: []wire.ObjectIDWire{id}, TimeoutMs: -1}); err != nil {
		t.Fatalf("send Get: %v", err)
	}
	var reply wire.GetReply
	typ, err := c.Recv(&reply)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if typ != wire.MsgGetReply || reply.Status != 0 {
		t.Fatalf("expected a Status-0 GetReply even for an unknown object, got %+v", reply)
	}
	if len(reply.DataSizes) != 1 || reply.DataSizes[0] != -1 {
		t.Fatalf("expected a -1 DataSize slot for an unsealed/unknown object, got %+v", reply)
	}
}
