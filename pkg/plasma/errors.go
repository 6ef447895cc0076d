package plasma

import (
	"errors"
	"fmt"

	"github.com/arrowlake/plasma-go/internal/plog"
)

// Error kinds. Each wraps one of these sentinels via fmt.Errorf("...: %w",
// ErrX) so callers can test with errors.Is without depending on a
// particular message string.
var (
	// ErrConnection covers failures establishing or maintaining the store
	// or manager connection (dial failure, retries exhausted, unexpected
	// close).
	ErrConnection = errors.New("plasma: connection error")

	// ErrTransport covers failures reading or writing a wire frame: short
	// reads, oversized frames, fd-passing failures.
	ErrTransport = errors.New("plasma: transport error")

	// ErrProtocol covers malformed or unexpected replies from the store:
	// bad magic, reply type mismatch, truncated payload.
	ErrProtocol = errors.New("plasma: protocol error")

	// ErrState covers an operation rejected by the lifecycle state
	// machine for the object's current state.
	ErrState = errors.New("plasma: invalid state transition")

	// ErrCapacity covers the store reporting it is out of space for a
	// Create request.
	ErrCapacity = errors.New("plasma: store out of capacity")

	// ErrNotFound covers an operation addressing an object the store has
	// no record of.
	ErrNotFound = errors.New("plasma: object not found")

	// ErrTimeout covers a Wait call that did not complete before its
	// deadline. Get does not return it: a missed Get deadline shows up per
	// object as GetResult.Ready == false.
	ErrTimeout = errors.New("plasma: operation timed out")

	// ErrNoManager is returned by manager-only operations (Fetch,
	// Transfer, Info) when the client was not configured with a manager
	// connection.
	ErrNoManager = errors.New("plasma: no manager connection configured")

	// ErrInvalidArgument covers caller-supplied values rejected before
	// any I/O (malformed ObjectID, invalid ClientConfig).
	ErrInvalidArgument = errors.New("plasma: invalid argument")

	// ErrAlreadyReleased is returned by a second call to Buffer.Release.
	ErrAlreadyReleased = errors.New("plasma: buffer already released")

	// ErrClosed is returned by any call made after Disconnect.
	ErrClosed = errors.New("plasma: client is closed")

	// ErrFDPassingUnsupported is returned on platforms without SCM_RIGHTS
	// ancillary-data support.
	ErrFDPassingUnsupported = errors.New("plasma: fd passing unsupported on this platform")
)

// ConnectionError wraps ErrConnection with the socket path that failed.
func ConnectionError(socket string, cause error) error {
	return fmt.Errorf("%w: dial %s: %v", ErrConnection, socket, cause)
}

// TransportError wraps ErrTransport with a short description.
func TransportError(what string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrTransport, what, cause)
	}
	return fmt.Errorf("%w: %s", ErrTransport, what)
}

// ProtocolError wraps ErrProtocol with a short description.
func ProtocolError(what string) error {
	return fmt.Errorf("%w: %s", ErrProtocol, what)
}

// StateError wraps ErrState with the operation and object id it was
// rejected for.
func StateError(op string, id ObjectID, state string) error {
	return fmt.Errorf("%w: %s not permitted on object %s in state %s", ErrState, op, id, state)
}

// NotFoundError wraps ErrNotFound with the object id.
func NotFoundError(id ObjectID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Fatal logs msg at error level via internal/plog and panics. It is called
// only on invariants the tables themselves are responsible for maintaining
// (a negative mmap region refcount, an in-use entry missing its mmap
// backing) — conditions that prove the client's own bookkeeping is
// corrupt, not conditions a caller can trigger through the public API.
func Fatal(msg string, args ...any) {
	plog.Error(msg, args...)
	panic("plasma: " + msg)
}
