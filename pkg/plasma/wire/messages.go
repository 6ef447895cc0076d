package wire

// Message payload structs. Field order is significant: each is encoded
// with github.com/rasky/go-xdr/xdr2, which (de)serializes exported struct
// fields in declaration order per RFC 4506.

// ObjectIDWire is the on-wire representation of a plasma.ObjectID.
type ObjectIDWire [20]byte

// ConnectRequest opens a session; the store replies with the protocol
// version it speaks so version skew fails fast.
type ConnectRequest struct {
	ClientVersion uint32
}

// ConnectReply confirms or rejects a Connect.
type ConnectReply struct {
	Status        int32
	StoreVersion  uint32
	StoreCapacity int64
}

// CreateRequest asks the store to allocate a new object.
type CreateRequest struct {
	ObjectID     ObjectIDWire
	DataSize     int64
	MetadataSize int64
	DeviceNum    int32
}

// CreateReply carries the newly-allocated segment's backing store fd
// identity; the actual fd itself travels as SCM_RIGHTS ancillary data
// alongside this payload, keyed by StoreFD for the mmap table.
type CreateReply struct {
	Status   int32
	StoreFD  uint64
	FDLength int64
}

// SealRequest marks an object read-only and publishes it.
type SealRequest struct {
	ObjectID ObjectIDWire
}

// SealReply acknowledges a seal.
type SealReply struct {
	Status int32
}

// AbortRequest cancels an in-progress (unsealed) create.
type AbortRequest struct {
	ObjectID ObjectIDWire
}

// AbortReply acknowledges an abort.
type AbortReply struct {
	Status int32
}

// ReleaseRequest decrements an object's store-side reference count.
type ReleaseRequest struct {
	ObjectID ObjectIDWire
}

// ReleaseReply acknowledges a release.
type ReleaseReply struct {
	Status int32
}

// ContainsRequest asks whether the store holds an object sealed.
type ContainsRequest struct {
	ObjectID ObjectIDWire
}

// ContainsReply answers a ContainsRequest.
type ContainsReply struct {
	Status  int32
	Present bool
}

// GetRequest asks for a batch of sealed objects' mappings in a single
// round trip, blocking up to TimeoutMs (-1 for unbounded) for any that are
// not yet sealed.
type GetRequest struct {
	ObjectIDs []ObjectIDWire
	TimeoutMs int64
}

// GetReply reports one result per requested ObjectID, in the same order
// as GetRequest.ObjectIDs. A slot whose DataSizes entry is -1 was not
// ready by the deadline (or is unknown to the store); it carries no fd.
// Ready slots' segment fds travel as ancillary data in request order,
// alongside this payload, as with CreateReply.
type GetReply struct {
	Status        int32
	ObjectIDs     []ObjectIDWire
	StoreFDs      []uint64
	FDLengths     []int64
	DataSizes     []int64
	MetadataSizes []int64
	DeviceNums    []int32
}

// DeleteRequest asks the store to remove an object. Per spec, this is
// best-effort: the store silently ignores a Delete for an object that is
// absent, unsealed, or still in use, rather than returning an error.
type DeleteRequest struct {
	ObjectID ObjectIDWire
}

// DeleteReply acknowledges a delete (always Status == 0; see DeleteRequest).
type DeleteReply struct {
	Status int32
}

// EvictRequest asks the store to evict up to NumBytes of unreferenced
// objects to free capacity. Eviction policy is entirely store-side.
type EvictRequest struct {
	NumBytes int64
}

// EvictReply reports how many bytes were actually evicted.
type EvictReply struct {
	Status     int32
	NumEvicted int64
}

// SubscribeRequest opens the notification stream on a second connection.
type SubscribeRequest struct{}

// SubscribeReply acknowledges a subscribe.
type SubscribeReply struct {
	Status int32
}

// Notification is pushed on the notification stream whenever an object is
// sealed or deleted. DataSize == -1 signals deletion.
type Notification struct {
	ObjectID     ObjectIDWire
	DataSize     int64
	MetadataSize int64
}

// GetDebugStringRequest asks the store for a free-form status dump.
type GetDebugStringRequest struct{}

// GetDebugStringReply carries the dump.
type GetDebugStringReply struct {
	Status int32
	Text   string
}

// HashRequest asks the store for a sealed object's content hash.
type HashRequest struct {
	ObjectID ObjectIDWire
}

// HashReply carries the hash, if the store has one computed.
type HashReply struct {
	Status int32
	Hash   [32]byte
}

// -- Manager connection messages --

// FetchRequest asks the manager to fetch a remote object into the local
// store.
type FetchRequest struct {
	ObjectID ObjectIDWire
}

// FetchReply acknowledges a fetch request (fetch itself is asynchronous;
// completion is observed via Wait or Get).
type FetchReply struct {
	Status int32
}

// WaitQueryType selects whether Wait considers only local objects or any
// reachable via the manager.
type WaitQueryType int32

const (
	WaitQueryLocal WaitQueryType = iota
	WaitQueryAnywhere
)

// WaitRequest asks the manager to block until NumReturns of ObjectIDs are
// ready (sealed and, for ANYWHERE, possibly remote), or TimeoutMs elapses.
type WaitRequest struct {
	ObjectIDs  []ObjectIDWire
	NumReturns int32
	TimeoutMs  int64
	Query      WaitQueryType
}

// ObjectLocation reports where Wait found a ready object.
type ObjectLocation int32

const (
	LocationNonexistent ObjectLocation = iota
	LocationLocal
	LocationRemote
)

// WaitReply reports which of the requested objects became ready and
// where.
type WaitReply struct {
	Status    int32
	ObjectIDs []ObjectIDWire
	Locations []ObjectLocation
}

// TransferRequest asks the manager to push an object to a remote store.
type TransferRequest struct {
	ObjectID ObjectIDWire
	Addr     string
	Port     int32
}

// TransferReply acknowledges a transfer request.
type TransferReply struct {
	Status int32
}

// InfoRequest asks the manager for cluster-wide status for a set of
// objects.
type InfoRequest struct {
	ObjectIDs []ObjectIDWire
}

// ObjectInfo reports one object's cluster-wide status.
type ObjectInfo struct {
	ObjectID ObjectIDWire
	Location ObjectLocation
	DataSize int64
}

// InfoReply carries the requested object info.
type InfoReply struct {
	Status int32
	Infos  []ObjectInfo
}
