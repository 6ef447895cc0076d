// Package client implements the public façade of the Plasma client
// library: Connect/Disconnect plus the typed object lifecycle and
// blocking-coordination operations built on top of pkg/plasma's wire,
// mmaptbl, inuse, and lifecycle building blocks.
package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/arrowlake/plasma-go/internal/plog"
	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/inuse"
	"github.com/arrowlake/plasma-go/pkg/plasma/mmaptbl"
	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// Client is the caller-facing handle for one connection to a store daemon
// (and, optionally, a manager daemon). A Client is not safe for concurrent
// use by multiple goroutines (spec.md §5); open one per goroutine that
// needs object access.
type Client struct {
	cfg plasma.ClientConfig
	log *slog.Logger
	lc  *plog.LogContext

	store   *wire.Conn
	manager *wire.Conn // nil when ClientConfig.ManagerSocketPath is empty

	mmap    *mmaptbl.Table
	history *inuse.History
	inUse   *inuse.Table

	metrics plasma.MetricsRecorder

	closed bool
}

// Connect dials the store daemon named by cfg.StoreSocketPath (and, if set,
// cfg.ManagerSocketPath), retrying with bounded exponential backoff up to
// cfg.NumRetries times, matching the teacher's client-construction-plus-
// readiness-polling convention.
// Callers that don't need to override any default should build cfg from
// plasma.DefaultConfig rather than a bare ClientConfig literal.
func Connect(cfg plasma.ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = plog.With(plog.StoreSocket(cfg.StoreSocketPath))
	}

	storeConn, err := dialWithRetry(cfg.StoreSocketPath, cfg.NumRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay)
	if err != nil {
		return nil, plasma.ConnectionError(cfg.StoreSocketPath, err)
	}

	var managerConn *wire.Conn
	if cfg.ManagerSocketPath != "" {
		mc, err := dialWithRetry(cfg.ManagerSocketPath, cfg.NumRetries, cfg.RetryBaseDelay, cfg.RetryMaxDelay)
		if err != nil {
			_ = storeConn.Close()
			return nil, plasma.ConnectionError(cfg.ManagerSocketPath, err)
		}
		managerConn = wire.NewConn(mc, cfg.MaxFrameBytes)
	}

	c := &Client{
		cfg:     cfg,
		log:     log,
		lc:      plog.NewLogContext(cfg.StoreSocketPath),
		store:   wire.NewConn(storeConn, cfg.MaxFrameBytes),
		manager: managerConn,
		mmap:    mmaptbl.New(),
		metrics: plasma.MetricsOrNoop(cfg.Metrics),
	}
	c.lc.ManagerSet = managerConn != nil
	c.history = inuse.NewHistory(cfg.L3CacheBytes, cfg.ReleaseDelay, c.onHistoryEvict)
	c.inUse = inuse.New(c.history)

	if err := c.handshake(); err != nil {
		_ = c.Disconnect()
		return nil, err
	}

	c.log.Info("connected", plog.StoreSocket(cfg.StoreSocketPath), plog.Op("Connect"))
	return c, nil
}

// handshake exchanges ConnectRequest/ConnectReply to confirm protocol
// version before any object operation is attempted.
func (c *Client) handshake() error {
	req := wire.ConnectRequest{ClientVersion: protocolVersion}
	if err := c.store.Send(wire.MsgConnect, &req); err != nil {
		return plasma.TransportError("send Connect", err)
	}
	var reply wire.ConnectReply
	t, err := c.store.Recv(&reply)
	if err != nil {
		return plasma.TransportError("recv ConnectReply", err)
	}
	if t != wire.MsgConnectReply {
		return plasma.ProtocolError(fmt.Sprintf("expected ConnectReply, got %s", t))
	}
	if reply.Status != 0 {
		return plasma.ConnectionError(c.cfg.StoreSocketPath, fmt.Errorf("store rejected connect: status %d", reply.Status))
	}
	return nil
}

// protocolVersion is the client's wire protocol version, sent in every
// ConnectRequest.
const protocolVersion = 1

func dialWithRetry(socket string, numRetries int, base, maxDelay time.Duration) (*net.UnixConn, error) {
	addr := &net.UnixAddr{Name: socket, Net: "unix"}

	var lastErr error
	delay := base
	if delay <= 0 {
		delay = plasma.DefaultRetryBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = plasma.DefaultRetryMaxDelay
	}

	for attempt := 0; attempt <= numRetries; attempt++ {
		conn, err := net.DialUnix("unix", nil, addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if attempt == numRetries {
			break
		}
		time.Sleep(delay)
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return nil, lastErr
}

// onHistoryEvict is called by the release history when it drops an object,
// either past cfg.L3CacheBytes or cfg.ReleaseDelay or on Flush at
// Disconnect; it gives back the object's count on its backing region,
// unmapping the region once nothing local references it any longer.
func (c *Client) onHistoryEvict(obj plasma.PlasmaObject) {
	if obj.DeviceNum != 0 || obj.StoreFD == 0 {
		return
	}
	if _, err := c.mmap.Decrement(obj.StoreFD, mmaptbl.Munmap); err != nil {
		if errors.Is(err, mmaptbl.ErrNegativeRefcount) {
			plasma.Fatal("unmap evicted history entry", plog.ObjectID(obj.ID.Bytes()), plog.Err(err))
		}
		c.log.Error("unmap evicted history entry", plog.ObjectID(obj.ID.Bytes()), plog.Err(err))
	}
}

// Disconnect closes the store connection and, if configured, the manager
// connection. It is safe to call more than once.
func (c *Client) Disconnect() error {
	if c.closed {
		return nil
	}
	c.closed = true

	c.history.Flush()

	var firstErr error
	if c.store != nil {
		if err := c.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.manager != nil {
		if err := c.manager.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.log.Info("disconnected", plog.Op("Disconnect"))
	return firstErr
}

// Stats returns a point-in-time snapshot of this client's local
// bookkeeping. It never queries the store.
func (c *Client) Stats() plasma.Stats {
	return plasma.Stats{
		MmapRegions:           c.mmap.Len(),
		MmapBytes:             c.mmap.TotalBytes(),
		InUseEntries:          c.inUse.Len(),
		ReleaseHistoryEntries: c.history.Len(),
		ReleaseHistoryBytes:   c.history.Bytes(),
	}
}

func (c *Client) checkClosed() error {
	if c.closed {
		return plasma.ErrClosed
	}
	return nil
}

func (c *Client) recordOp(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.IncOps(op, result)
	c.metrics.ObserveOpDuration(op, time.Since(start).Seconds())
	c.metrics.ObserveStats(c.Stats())
}
