package wire

import (
	"bytes"
	"fmt"
	"net"
	"sync"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Conn is a framed, XDR-encoded transport over a single *net.UnixConn.
// Per spec.md §5 the protocol is not pipelined (except the notification
// stream, which uses its own Conn): one request is outstanding at a time.
// The mutex here serialises each frame write and each frame read on its
// own; keeping a request paired with its reply is left to the caller.
type Conn struct {
	uc  *net.UnixConn
	fds FDChannel

	maxFrame int64

	mu sync.Mutex
}

// NewConn wraps uc. maxFrame bounds an incoming frame's declared payload
// length; frames claiming more are rejected without reading them.
func NewConn(uc *net.UnixConn, maxFrame int64) *Conn {
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameBytes
	}
	return &Conn{uc: uc, fds: NewFDChannel(), maxFrame: maxFrame}
}

// Raw returns the underlying connection, for callers that need to set
// deadlines or poll it directly (see client.Notifier.Fd).
func (c *Conn) Raw() *net.UnixConn {
	return c.uc
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.uc.Close()
}

// Send marshals msg as XDR and writes it as one frame of type t, with no
// fd attached.
func (c *Conn) Send(t MsgType, msg any) error {
	return c.SendFDs(t, msg, nil)
}

// SendFD is like Send but additionally passes fd as SCM_RIGHTS ancillary
// data on the frame (used for a CreateReply carrying a mapping).
func (c *Conn) SendFD(t MsgType, msg any, fd int) error {
	if fd < 0 {
		return c.SendFDs(t, msg, nil)
	}
	return c.SendFDs(t, msg, []int{fd})
}

// SendFDs is like Send but additionally passes fds as SCM_RIGHTS ancillary
// data on the frame — used by a batched GetReply, which carries one fd per
// ready object in the same frame.
func (c *Conn) SendFDs(t MsgType, msg any, fds []int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	if _, err := xdr.Marshal(&buf, msg); err != nil {
		return fmt.Errorf("marshal %s: %w", t, err)
	}

	var hbuf bytes.Buffer
	if err := writeHeader(&hbuf, header{Type: t, Length: uint64(buf.Len())}); err != nil {
		return err
	}

	payload := append(hbuf.Bytes(), buf.Bytes()...)
	return c.fds.SendFDs(c.uc, payload, fds)
}

// Recv reads one frame, returning its type and decoding its payload into
// msg (a pointer). No fd is expected; use RecvFD/RecvFDs for frames that
// may carry one or more.
func (c *Conn) Recv(msg any) (MsgType, error) {
	t, _, err := c.RecvFD(msg)
	return t, err
}

// RecvFD reads one frame, decoding its payload into msg and returning any
// single fd attached as ancillary data (-1 if none). If the frame carries
// more than one fd, only the first is returned; use RecvFDs for batched
// replies.
func (c *Conn) RecvFD(msg any) (MsgType, int, error) {
	t, fds, err := c.RecvFDs(msg)
	if err != nil {
		return 0, -1, err
	}
	fd := -1
	if len(fds) > 0 {
		fd = fds[0]
	}
	return t, fd, nil
}

// RecvFDs reads one frame, decoding its payload into msg and returning any
// fds attached as ancillary data (nil if none) — used to receive a
// batched GetReply's per-object mapping fds.
func (c *Conn) RecvFDs(msg any) (MsgType, []int, error) {
	t, fds, body, err := c.readFrame()
	if err != nil {
		return 0, nil, err
	}
	if _, err := xdr.Unmarshal(bytes.NewReader(body), msg); err != nil {
		return 0, nil, fmt.Errorf("unmarshal %s: %w", t, err)
	}
	return t, fds, nil
}

// Frame is one decoded-header, still-raw-payload frame returned by Peek,
// for callers (a fake store in tests) that must dispatch on message type
// before knowing which concrete struct to decode into.
type Frame struct {
	Type MsgType
	FD   int // first fd attached, -1 if none
	FDs  []int
	body []byte
}

// Decode unmarshals the frame's payload into msg (a pointer).
func (f Frame) Decode(msg any) error {
	if _, err := xdr.Unmarshal(bytes.NewReader(f.body), msg); err != nil {
		return fmt.Errorf("unmarshal %s: %w", f.Type, err)
	}
	return nil
}

// Peek reads one frame's header and raw payload without decoding it,
// letting the caller pick a destination struct based on Frame.Type before
// calling Frame.Decode.
func (c *Conn) Peek() (Frame, error) {
	t, fds, body, err := c.readFrame()
	if err != nil {
		return Frame{}, err
	}
	fd := -1
	if len(fds) > 0 {
		fd = fds[0]
	}
	return Frame{Type: t, FD: fd, FDs: fds, body: body}, nil
}

// readFrame reads and validates one frame, returning its type, any
// attached fds, and its raw (still XDR-encoded) payload.
func (c *Conn) readFrame() (MsgType, []int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Ancillary data arrives with the first recvmsg call on the frame, so
	// the header and payload must be read together rather than via two
	// separate reads the way a plain io.Reader would allow.
	payload, fds, err := c.fds.RecvFDs(c.uc, frameHeaderSize+int(c.maxFrame))
	if err != nil {
		return 0, nil, nil, err
	}
	if len(payload) < frameHeaderSize {
		return 0, nil, nil, fmt.Errorf("short frame: %d bytes", len(payload))
	}

	h, err := readHeader(bytes.NewReader(payload[:frameHeaderSize]))
	if err != nil {
		return 0, nil, nil, err
	}
	if int64(h.Length) > c.maxFrame {
		return 0, nil, nil, fmt.Errorf("frame too large: %d bytes exceeds max %d", h.Length, c.maxFrame)
	}

	body := payload[frameHeaderSize:]
	if uint64(len(body)) < h.Length {
		return 0, nil, nil, fmt.Errorf("truncated frame: declared %d bytes, read %d", h.Length, len(body))
	}

	return h.Type, fds, body[:h.Length], nil
}
