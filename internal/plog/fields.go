package plog

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the client library.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Client / connection identity
	// ========================================================================
	KeyStoreSocket = "store_socket" // Unix socket path of the connected store
	KeyManagerSet  = "manager_set"  // whether a manager connection is configured
	KeySessionID   = "session_id"   // client session identifier, if assigned
	KeyConnRetries = "conn_retries" // connection retry attempt number

	// ========================================================================
	// Operation & object identity
	// ========================================================================
	KeyOp       = "op"        // public API operation name: Create, Get, Seal, ...
	KeyObjectID = "object_id" // hex-encoded ObjectID the operation concerns
	KeyState    = "state"     // lifecycle state: absent, creating, sealed-in-use, queued

	// ========================================================================
	// Size & timing
	// ========================================================================
	KeyDataSize     = "data_size"     // requested/actual data segment size
	KeyMetadataSize = "metadata_size" // requested/actual metadata segment size
	KeyDeviceNum    = "device_num"    // GPU device number (0 = host memory)
	KeyDurationMs   = "duration_ms"   // operation duration in milliseconds
	KeyTimeoutMs    = "timeout_ms"    // caller-supplied timeout in milliseconds

	// ========================================================================
	// In-use / release history
	// ========================================================================
	KeyLocalRefs   = "local_refs"   // local reference count for an object
	KeyHistorySize = "history_size" // number of entries in the release history
	KeyEvicted     = "evicted"      // number of entries evicted/flushed

	// ========================================================================
	// Errors
	// ========================================================================
	KeyError     = "error"      // error message
	KeyErrorKind = "error_kind" // taxonomy kind: connection, transport, protocol, state, capacity, not_found, timeout

	// ========================================================================
	// Wait / notify
	// ========================================================================
	KeyNumRequested = "num_requested" // objects requested in a Wait call
	KeyNumReady     = "num_ready"     // objects that became ready
)

// ----------------------------------------------------------------------------
// Client identity
// ----------------------------------------------------------------------------

// StoreSocket returns a slog.Attr for the store socket path.
func StoreSocket(path string) slog.Attr {
	return slog.String(KeyStoreSocket, path)
}

// SessionID returns a slog.Attr for the session identifier.
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// ConnRetries returns a slog.Attr for connection retry attempt number.
func ConnRetries(n int) slog.Attr {
	return slog.Int(KeyConnRetries, n)
}

// ----------------------------------------------------------------------------
// Operation & object identity
// ----------------------------------------------------------------------------

// Op returns a slog.Attr for the public API operation name.
func Op(name string) slog.Attr {
	return slog.String(KeyOp, name)
}

// ObjectID returns a slog.Attr for a hex-encoded object id.
func ObjectID(id []byte) slog.Attr {
	return slog.String(KeyObjectID, fmt.Sprintf("%x", id))
}

// ObjectIDHex returns a slog.Attr for an object id already in hex form.
func ObjectIDHex(id string) slog.Attr {
	return slog.String(KeyObjectID, id)
}

// State returns a slog.Attr for the object lifecycle state.
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// ----------------------------------------------------------------------------
// Size & timing
// ----------------------------------------------------------------------------

// DataSize returns a slog.Attr for a data segment size.
func DataSize(n int64) slog.Attr {
	return slog.Int64(KeyDataSize, n)
}

// MetadataSize returns a slog.Attr for a metadata segment size.
func MetadataSize(n int64) slog.Attr {
	return slog.Int64(KeyMetadataSize, n)
}

// DeviceNum returns a slog.Attr for a GPU device number.
func DeviceNum(n int) slog.Attr {
	return slog.Int(KeyDeviceNum, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// TimeoutMs returns a slog.Attr for a caller-supplied timeout.
func TimeoutMs(ms int64) slog.Attr {
	return slog.Int64(KeyTimeoutMs, ms)
}

// ----------------------------------------------------------------------------
// In-use / release history
// ----------------------------------------------------------------------------

// LocalRefs returns a slog.Attr for a local reference count.
func LocalRefs(n int) slog.Attr {
	return slog.Int(KeyLocalRefs, n)
}

// HistorySize returns a slog.Attr for release history length.
func HistorySize(n int) slog.Attr {
	return slog.Int(KeyHistorySize, n)
}

// Evicted returns a slog.Attr for number of entries evicted/flushed.
func Evicted(n int) slog.Attr {
	return slog.Int(KeyEvicted, n)
}

// ----------------------------------------------------------------------------
// Errors
// ----------------------------------------------------------------------------

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for the error taxonomy kind.
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// ----------------------------------------------------------------------------
// Wait / notify
// ----------------------------------------------------------------------------

// NumRequested returns a slog.Attr for the number of objects requested in Wait.
func NumRequested(n int) slog.Attr {
	return slog.Int(KeyNumRequested, n)
}

// NumReady returns a slog.Attr for the number of objects that became ready.
func NumReady(n int) slog.Attr {
	return slog.Int(KeyNumReady, n)
}
