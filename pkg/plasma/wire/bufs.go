package wire

import "sync"

// Buffer size classes for this protocol's control messages. Bulk object
// data never crosses this socket — it arrives via mmap'd shared memory —
// so unlike a general-purpose I/O buffer pool this carries no "large" tier.
const (
	smallSize  = 256     // fixed-field requests/replies (Create, Release, ...)
	mediumSize = 4 << 10 // variable-length replies (GetDebugString)
)

type pool struct {
	small  sync.Pool
	medium sync.Pool
}

var bufs = newPool()

func newPool() *pool {
	p := &pool{}
	p.small = sync.Pool{New: func() any {
		b := make([]byte, smallSize)
		return &b
	}}
	p.medium = sync.Pool{New: func() any {
		b := make([]byte, mediumSize)
		return &b
	}}
	return p
}

// Get returns a byte slice of at least size bytes. The caller must call Put
// when done; buffers larger than mediumSize are allocated directly and not
// pooled.
func Get(size int) []byte {
	var bp *[]byte
	switch {
	case size <= smallSize:
		bp = bufs.small.Get().(*[]byte)
	case size <= mediumSize:
		bp = bufs.medium.Get().(*[]byte)
	default:
		return make([]byte, size)
	}
	b := *bp
	return b[:size]
}

// Put returns a buffer obtained from Get to the pool.
func Put(b []byte) {
	if b == nil {
		return
	}
	switch cap(b) {
	case smallSize:
		full := b[:cap(b)]
		bufs.small.Put(&full)
	case mediumSize:
		full := b[:cap(b)]
		bufs.medium.Put(&full)
	}
}
