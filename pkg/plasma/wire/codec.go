// Package wire implements the Plasma client's wire protocol: a fixed
// 12-byte frame header followed by an XDR-encoded payload, with file
// descriptors passed out-of-band as Unix socket ancillary data on
// mapping-carrying replies.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// frameHeaderSize is {4-byte type, 8-byte length}.
const frameHeaderSize = 12

// MsgType tags the payload that follows a frame header.
type MsgType uint32

const (
	MsgConnect MsgType = iota + 1
	MsgConnectReply
	MsgCreate
	MsgCreateReply
	MsgSeal
	MsgSealReply
	MsgAbort
	MsgAbortReply
	MsgRelease
	MsgReleaseReply
	MsgContains
	MsgContainsReply
	MsgGet
	MsgGetReply
	MsgDelete
	MsgDeleteReply
	MsgEvict
	MsgEvictReply
	MsgSubscribe
	MsgSubscribeReply
	MsgNotification
	MsgGetDebugString
	MsgGetDebugStringReply
	MsgHash
	MsgHashReply
	MsgFetch
	MsgFetchReply
	MsgWait
	MsgWaitReply
	MsgTransfer
	MsgTransferReply
	MsgInfo
	MsgInfoReply
)

// String names a MsgType for logging; unknown values print numerically.
func (t MsgType) String() string {
	switch t {
	case MsgConnect:
		return "Connect"
	case MsgConnectReply:
		return "ConnectReply"
	case MsgCreate:
		return "Create"
	case MsgCreateReply:
		return "CreateReply"
	case MsgSeal:
		return "Seal"
	case MsgSealReply:
		return "SealReply"
	case MsgAbort:
		return "Abort"
	case MsgAbortReply:
		return "AbortReply"
	case MsgRelease:
		return "Release"
	case MsgReleaseReply:
		return "ReleaseReply"
	case MsgContains:
		return "Contains"
	case MsgContainsReply:
		return "ContainsReply"
	case MsgGet:
		return "Get"
	case MsgGetReply:
		return "GetReply"
	case MsgDelete:
		return "Delete"
	case MsgDeleteReply:
		return "DeleteReply"
	case MsgEvict:
		return "Evict"
	case MsgEvictReply:
		return "EvictReply"
	case MsgSubscribe:
		return "Subscribe"
	case MsgSubscribeReply:
		return "SubscribeReply"
	case MsgNotification:
		return "Notification"
	case MsgGetDebugString:
		return "GetDebugString"
	case MsgGetDebugStringReply:
		return "GetDebugStringReply"
	case MsgHash:
		return "Hash"
	case MsgHashReply:
		return "HashReply"
	case MsgFetch:
		return "Fetch"
	case MsgFetchReply:
		return "FetchReply"
	case MsgWait:
		return "Wait"
	case MsgWaitReply:
		return "WaitReply"
	case MsgTransfer:
		return "Transfer"
	case MsgTransferReply:
		return "TransferReply"
	case MsgInfo:
		return "Info"
	case MsgInfoReply:
		return "InfoReply"
	default:
		return fmt.Sprintf("MsgType(%d)", uint32(t))
	}
}

// DefaultMaxFrameBytes is used when a caller does not configure one
// explicitly; it matches plasma.DefaultMaxFrameBytes.
const DefaultMaxFrameBytes = 64 << 20

// header is the 12-byte frame preamble: {type uint32, length uint64}.
type header struct {
	Type   MsgType
	Length uint64
}

func writeHeader(w io.Writer, h header) error {
	var buf [frameHeaderSize]byte
	binary.BigEndian.PutUint32(buf[0:4], uint32(h.Type))
	binary.BigEndian.PutUint64(buf[4:12], h.Length)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (header, error) {
	var buf [frameHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return header{}, fmt.Errorf("read frame header: %w", io.ErrUnexpectedEOF)
		}
		return header{}, fmt.Errorf("read frame header: %w", err)
	}
	return header{
		Type:   MsgType(binary.BigEndian.Uint32(buf[0:4])),
		Length: binary.BigEndian.Uint64(buf[4:12]),
	}, nil
}
