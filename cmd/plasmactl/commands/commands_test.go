package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/arrowlake/plasma-go/pkg/plasma/plasmatest"
)

// runCLI executes the root command with args against a fresh plasmatest
// store, capturing whatever the invoked subcommand writes to os.Stdout.
func runCLI(t *testing.T, storeAddr string, args ...string) string {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	origStdout := os.Stdout
	os.Stdout = w

	cmd := GetRootCmd()
	cmd.SetArgs(append([]string{"--store", storeAddr}, args...))
	execErr := cmd.Execute()

	os.Stdout = origStdout
	w.Close()
	out, _ := io.ReadAll(r)

	if execErr != nil {
		t.Fatalf("Execute(%v): %v\noutput: %s", args, execErr, out)
	}
	return string(out)
}

func newStore(t *testing.T) *plasmatest.Store {
	t.Helper()
	store, err := plasmatest.NewStore(filepath.Join(t.TempDir(), "store.sock"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newStore(t)

	in := filepath.Join(t.TempDir(), "in.bin")
	if err := os.WriteFile(in, []byte("hello plasma"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	id := "00112233445566778899aabbccddeeff00112233"
	runCLI(t, store.Addr(), "put", "--id", id, "--in", in, "--metadata", "meta")

	out := filepath.Join(t.TempDir(), "out.bin")
	runCLI(t, store.Addr(), "get", "--id", id, "--out", out)

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, []byte("hello plasma")) {
		t.Fatalf("roundtrip data = %q, want %q", got, "hello plasma")
	}
}

func TestStatWithoutManagerPrintsLocalStats(t *testing.T) {
	store := newStore(t)

	in := filepath.Join(t.TempDir(), "in.bin")
	if err := os.WriteFile(in, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	id := "10112233445566778899aabbccddeeff00112233"
	runCLI(t, store.Addr(), "put", "--id", id, "--in", in)

	out := runCLI(t, store.Addr(), "stat", "--id", id)
	if !bytes.Contains([]byte(out), []byte("local client stats")) {
		t.Fatalf("stat output = %q, want local stats banner", out)
	}
}

func TestVersionCommand(t *testing.T) {
	store := newStore(t)
	out := runCLI(t, store.Addr(), "version")
	if out == "" {
		t.Fatal("version produced no output")
	}
}
