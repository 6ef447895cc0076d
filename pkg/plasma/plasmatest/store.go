// Package plasmatest implements an in-process fake store daemon speaking
// pkg/plasma/wire's protocol over a real Unix domain socket, so
// pkg/plasma/client tests can exercise a full Connect→Create→Seal→Get→
// Release→Disconnect round trip without a real store binary — the same
// "fake collaborator serving the real wire format" shape as the
// teacher's own per-package testing fixtures.
package plasmatest

import (
	"io"
	"net"
	"os"
	"sync"

	"github.com/arrowlake/plasma-go/pkg/plasma/wire"
)

// Store is a minimal fake store that serves each accepted connection on
// its own goroutine, so several clients may share it. It backs each
// created object with a real temp file (not shared memory) so CreateReply/
// GetReply can pass a genuine fd as SCM_RIGHTS ancillary data, exercising
// the same wire path a real daemon would.
type Store struct {
	ln *net.UnixListener

	mu       sync.Mutex
	objects  map[wire.ObjectIDWire]*object
	nextFD   uint64
	notifees []*wire.Conn

	closeOnce sync.Once
	wg        sync.WaitGroup
}

type object struct {
	file         *os.File
	storeFD      uint64
	dataSize     int64
	metadataSize int64
	deviceNum    int32
	sealed       bool
}

// NewStore starts listening on socketPath and returns a Store serving
// connections in the background. Call Close to stop it.
func NewStore(socketPath string) (*Store, error) {
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: socketPath, Net: "unix"})
	if err != nil {
		return nil, err
	}
	s := &Store{ln: ln, objects: make(map[wire.ObjectIDWire]*object)}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the socket path callers should Connect to.
func (s *Store) Addr() string {
	return s.ln.Addr().String()
}

// Close stops accepting new connections and tears down any open object
// backing files.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		_ = s.ln.Close()
	})
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.objects {
		_ = obj.file.Close()
		_ = os.Remove(obj.file.Name())
	}
	return nil
}

func (s *Store) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.AcceptUnix()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Store) serve(raw *net.UnixConn) {
	defer s.wg.Done()
	c := wire.NewConn(raw, wire.DefaultMaxFrameBytes)
	defer c.Close()

	for {
		if err := s.handleOne(c); err != nil {
			if err != io.EOF {
				return
			}
			return
		}
	}
}
