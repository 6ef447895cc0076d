package inuse

import (
	"container/list"
	"sync"

	"github.com/arrowlake/plasma-go/internal/bytesize"
	"github.com/arrowlake/plasma-go/pkg/plasma"
)

// History is the release-history FIFO (spec.md §4.4, invariant I4): objects
// that just reached zero local references stay mapped and reachable for a
// short while rather than being unmapped immediately, on the theory that a
// just-released object is often about to be re-fetched.
//
// Ordering is strictly release order (oldest released evicted first), kept
// in a container/list.List for O(1) push/pop-oldest, with a side map for
// O(1) membership checks — the same shape as the teacher's LRU eviction
// loop in pkg/cache/eviction.go, but FIFO-by-release-order rather than
// sorted-by-last-access, since release order is already the order this
// table wants to evict in and needs no snapshot-and-sort pass.
type History struct {
	mu   sync.Mutex
	list *list.List
	idx  map[plasma.ObjectID]*list.Element

	maxBytes int64
	numBytes int64
	maxCount int

	// onEvict is called with the object being dropped from history,
	// outside the lock, so the caller can unmap/release its backing
	// region. Set by the owning client; nil is a no-op (used by tests
	// that only care about history's own bookkeeping).
	onEvict func(plasma.PlasmaObject)
}

// NewHistory returns an empty release history bounded by maxBytes of
// estimated resident size (ClientConfig.L3CacheBytes) and maxCount
// most-recently-released objects (ClientConfig.ReleaseDelay). Either bound
// of zero means that bound is unbounded; an object is flushed once it
// falls outside whichever bound is tighter at the time.
func NewHistory(maxBytes bytesize.ByteSize, maxCount int, onEvict func(plasma.PlasmaObject)) *History {
	return &History{
		list:     list.New(),
		idx:      make(map[plasma.ObjectID]*list.Element),
		maxBytes: int64(maxBytes),
		maxCount: maxCount,
		onEvict:  onEvict,
	}
}

// add inserts obj at the newest end of the FIFO, then evicts the oldest
// entries until the history fits within both maxBytes and maxCount. Called with the owning
// Table's lock already held.
func (h *History) add(obj plasma.PlasmaObject) {
	h.mu.Lock()

	if el, ok := h.idx[obj.ID]; ok {
		h.list.Remove(el)
		h.numBytes -= entrySize(obj)
	}

	el := h.list.PushBack(obj)
	h.idx[obj.ID] = el
	h.numBytes += entrySize(obj)

	evicted := h.evictToFit()
	h.mu.Unlock()

	for _, o := range evicted {
		if h.onEvict != nil {
			h.onEvict(o)
		}
	}
}

// remove drops id from history without running onEvict, used when an
// object is revived by a fresh BeginUse before history would otherwise
// have evicted it.
func (h *History) remove(id plasma.ObjectID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *History) removeLocked(id plasma.ObjectID) {
	el, ok := h.idx[id]
	if !ok {
		return
	}
	h.numBytes -= entrySize(el.Value.(plasma.PlasmaObject))
	h.list.Remove(el)
	delete(h.idx, id)
}

// Drop removes id from history, if present, and returns the object that
// was retained there, without invoking onEvict — the caller (Delete,
// which has just told the store to discard the object outright) is
// responsible for its own cleanup of that single object, distinct from
// Flush's bulk eviction of everything history holds.
func (h *History) Drop(id plasma.ObjectID) (plasma.PlasmaObject, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	el, ok := h.idx[id]
	if !ok {
		return plasma.PlasmaObject{}, false
	}
	obj := el.Value.(plasma.PlasmaObject)
	h.removeLocked(id)
	return obj, true
}

// evictToFit pops oldest entries while history.len() > maxCount OR
// numBytes > maxBytes, matching spec.md §4.4's two independent flush
// triggers (either bound of zero is treated as unbounded). Must be called
// with h.mu held; returns the evicted objects for the caller to process
// outside the lock.
func (h *History) evictToFit() []plasma.PlasmaObject {
	var evicted []plasma.PlasmaObject
	for h.overBytes() || h.overCount() {
		oldest := h.list.Front()
		if oldest == nil {
			break
		}
		obj := oldest.Value.(plasma.PlasmaObject)
		h.list.Remove(oldest)
		delete(h.idx, obj.ID)
		h.numBytes -= entrySize(obj)
		evicted = append(evicted, obj)
	}
	return evicted
}

func (h *History) overBytes() bool {
	return h.maxBytes > 0 && h.numBytes > h.maxBytes
}

func (h *History) overCount() bool {
	return h.maxCount > 0 && h.list.Len() > h.maxCount
}

// Lookup reports whether id is currently retained in history (released
// but not yet evicted), returning its object description.
func (h *History) Lookup(id plasma.ObjectID) (plasma.PlasmaObject, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	el, ok := h.idx[id]
	if !ok {
		return plasma.PlasmaObject{}, false
	}
	return el.Value.(plasma.PlasmaObject), true
}

// Len returns the number of objects currently retained in history.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.list.Len()
}

// Bytes returns the estimated resident size of everything currently
// retained in history.
func (h *History) Bytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.numBytes
}

// Flush evicts every entry currently in history regardless of maxBytes,
// for use at Disconnect time.
func (h *History) Flush() []plasma.PlasmaObject {
	h.mu.Lock()
	var evicted []plasma.PlasmaObject
	for el := h.list.Front(); el != nil; el = h.list.Front() {
		obj := el.Value.(plasma.PlasmaObject)
		h.list.Remove(el)
		delete(h.idx, obj.ID)
		evicted = append(evicted, obj)
	}
	h.numBytes = 0
	h.mu.Unlock()

	for _, o := range evicted {
		if h.onEvict != nil {
			h.onEvict(o)
		}
	}
	return evicted
}

// entrySize estimates an object's resident footprint for L3CacheBytes
// accounting: its data and metadata segments, the only bytes actually
// kept mapped while an object sits in history.
func entrySize(obj plasma.PlasmaObject) int64 {
	return obj.DataSize + obj.MetadataSize
}
