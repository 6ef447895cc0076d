package plasma

// PlasmaObject describes one object's data and metadata segments as
// reported by the store, independent of whether it is currently mapped.
type PlasmaObject struct {
	ID           ObjectID
	DataSize     int64
	MetadataSize int64

	// DeviceNum is 0 for host memory, or a positive device identifier for
	// GPU-resident objects. When non-zero, the mmap table is never
	// consulted for this object: device memory is opaque to this module
	// (see Buffer).
	DeviceNum int

	// StoreFD identifies the store-assigned backing region (the mmaptbl
	// key) this object's data and metadata segments live in. Zero for
	// device-resident objects, which carry no local mapping.
	StoreFD uint64
}

// Buffer is the caller-facing handle returned by Create and Get. It wraps
// the mapped data/metadata segments plus the one func needed to return
// this reference to the client — callers never need to re-supply the
// ObjectID to release what they were just handed.
type Buffer struct {
	// Data is the object's mutable (pre-Seal) or read-only (post-Seal)
	// data segment, backed by the mmap'd region. For DeviceNum != 0 it is
	// nil: this module maps no device memory and carries no device address.
	Data []byte

	// Metadata is the object's metadata segment, same backing rules as
	// Data.
	Metadata []byte

	// DeviceNum mirrors PlasmaObject.DeviceNum.
	DeviceNum int

	id       ObjectID
	release  func() error
	released bool
}

// NewBuffer constructs a Buffer over an already-mapped data/metadata pair.
// release is called at most once, by Buffer.Release; it may be nil for a
// Buffer that needs no client-side teardown (e.g. returned by a fake store
// in tests).
func NewBuffer(data, metadata []byte, deviceNum int, id ObjectID, release func() error) *Buffer {
	return &Buffer{
		Data:      data,
		Metadata:  metadata,
		DeviceNum: deviceNum,
		id:        id,
		release:   release,
	}
}

// Release returns this reference to the client, decrementing the object's
// local reference count. A second call returns ErrAlreadyReleased instead
// of decrementing again.
func (b *Buffer) Release() error {
	if b.released {
		return ErrAlreadyReleased
	}
	b.released = true
	if b.release == nil {
		return nil
	}
	return b.release()
}

// ObjectID returns the id of the object this buffer refers to.
func (b *Buffer) ObjectID() ObjectID {
	return b.id
}
