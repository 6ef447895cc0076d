package client_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/client"
	"github.com/arrowlake/plasma-go/pkg/plasma/plasmatest"
)

func newTestStore(t *testing.T) *plasmatest.Store {
	t.Helper()
	socket := filepath.Join(t.TempDir(), "plasma.sock")
	store, err := plasmatest.NewStore(socket)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testConfig(store *plasmatest.Store) plasma.ClientConfig {
	cfg := plasma.DefaultConfig(store.Addr())
	cfg.NumRetries = 5
	cfg.RetryBaseDelay = time.Millisecond
	cfg.RetryMaxDelay = 10 * time.Millisecond
	return cfg
}

func testObjectID(t *testing.T, b byte) plasma.ObjectID {
	t.Helper()
	raw := make([]byte, plasma.ObjectIDSize)
	raw[0] = b
	id, err := plasma.NewObjectID(raw)
	if err != nil {
		t.Fatalf("NewObjectID: %v", err)
	}
	return id
}

func TestConnectDisconnect(t *testing.T) {
	store := newTestStore(t)

	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	// A second Disconnect must be a harmless no-op.
	if err := c.Disconnect(); err != nil {
		t.Fatalf("second Disconnect: %v", err)
	}
}

func TestCreateSealGetRelease(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	id := testObjectID(t, 1)

	buf, err := c.Create(id, 16, 4, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(buf.Data) != 16 || len(buf.Metadata) != 4 {
		t.Fatalf("unexpected segment sizes: data=%d metadata=%d", len(buf.Data), len(buf.Metadata))
	}
	copy(buf.Data, []byte("hello world12345"))

	// Release is only legal once sealed (lifecycle.OpRelease requires
	// SealedInUse); Seal first, then release the creator's own reference.
	if err := c.Seal(id); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := buf.Release(); err != nil {
		t.Fatalf("Release after Seal: %v", err)
	}

	id2 := testObjectID(t, 2)
	buf2, err := c.Create(id2, 8, 0, 0)
	if err != nil {
		t.Fatalf("Create id2: %v", err)
	}
	if err := c.Seal(id2); err != nil {
		t.Fatalf("Seal: %v", err)
	}

	results, err := c.Get(context.Background(), []plasma.ObjectID{id2})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(results) != 1 || !results[0].Ready {
		t.Fatalf("expected one ready result, got %v", results)
	}
	got := results[0].Buffer
	if got.ObjectID() != id2 {
		t.Fatalf("expected Get to return id2, got %s", got.ObjectID())
	}

	if err := got.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := buf2.Release(); err != nil {
		t.Fatalf("Release buf2: %v", err)
	}
}

func TestGetReportsNotReadyForUnsealedObject(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	id := testObjectID(t, 3)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results, err := c.Get(ctx, []plasma.ObjectID{id})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(results) != 1 || results[0].Ready {
		t.Fatalf("expected a not-ready slot for an object never created, got %v", results)
	}
	if results[0].Buffer != nil {
		t.Fatal("expected nil Buffer for a not-ready slot")
	}
}

func TestAbortReturnsObjectToAbsent(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	id := testObjectID(t, 4)
	if _, err := c.Create(id, 8, 0, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Abort(id); err != nil {
		t.Fatalf("Abort: %v", err)
	}

	// A fresh Create must be legal again now that the object is Absent.
	if _, err := c.Create(id, 8, 0, 0); err != nil {
		t.Fatalf("Create after Abort: %v", err)
	}
}

func TestContainsReportsPresence(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	id := testObjectID(t, 20)
	present, err := c.Contains(id)
	if err != nil {
		t.Fatalf("Contains before Create: %v", err)
	}
	if present {
		t.Fatal("expected Contains false before Create")
	}

	if _, err := c.Create(id, 8, 0, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := c.Seal(id); err != nil {
		t.Fatalf("Seal: %v", err)
	}

	present, err = c.Contains(id)
	if err != nil {
		t.Fatalf("Contains after Seal: %v", err)
	}
	if !present {
		t.Fatal("expected Contains true after Seal (answered locally, no round-trip needed)")
	}
}

func TestWaitLocalObservesAnotherClientsSeal(t *testing.T) {
	store := newTestStore(t)

	writer, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect writer: %v", err)
	}
	defer writer.Disconnect()

	reader, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect reader: %v", err)
	}
	defer reader.Disconnect()

	id := testObjectID(t, 21)
	buf, err := writer.Create(id, 8, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(20 * time.Millisecond)
		if err := writer.Seal(id); err != nil {
			t.Errorf("Seal: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	results, err := reader.Wait(ctx, []plasma.ObjectID{id}, 1, client.WaitLocal)
	<-done
	if err != nil {
		t.Fatalf("Wait(LOCAL): %v", err)
	}
	if len(results) != 1 || results[0].Location != client.LocationLocal {
		t.Fatalf("expected id reported local-ready, got %v", results)
	}

	if err := buf.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestDeleteIsBestEffort(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	id := testObjectID(t, 5)
	if err := c.Delete(id); err != nil {
		t.Fatalf("Delete of never-created object should be a silent no-op: %v", err)
	}
}

func TestStatsReflectsLocalBookkeeping(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	id := testObjectID(t, 6)
	buf, err := c.Create(id, 32, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	stats := c.Stats()
	if stats.InUseEntries != 1 {
		t.Fatalf("expected 1 in-use entry, got %d", stats.InUseEntries)
	}
	if stats.MmapRegions != 1 {
		t.Fatalf("expected 1 mmap region, got %d", stats.MmapRegions)
	}

	if err := c.Seal(id); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if err := buf.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestOperationsAfterDisconnectFail(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Disconnect(); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	id := testObjectID(t, 7)
	if _, err := c.Create(id, 8, 0, 0); !errors.Is(err, plasma.ErrClosed) {
		t.Fatalf("expected ErrClosed after Disconnect, got %v", err)
	}
}

func TestManagerOperationsWithoutManagerConfigured(t *testing.T) {
	store := newTestStore(t)
	c, err := client.Connect(testConfig(store))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Disconnect()

	if err := c.Fetch(testObjectID(t, 8)); !errors.Is(err, plasma.ErrNoManager) {
		t.Fatalf("expected ErrNoManager from Fetch, got %v", err)
	}
	if _, err := c.Wait(context.Background(), nil, 0, client.WaitLocal); err != nil {
		t.Fatalf("expected WaitLocal to succeed without a manager, got %v", err)
	}
	if _, err := c.Wait(context.Background(), nil, 0, client.WaitAnywhere); !errors.Is(err, plasma.ErrNoManager) {
		t.Fatalf("expected ErrNoManager from Wait(ANYWHERE), got %v", err)
	}
}
