package collection

import (
	"bytes"
	"errors"
	"testing"
)

func TestStorePutGetDelete(t *testing.T) {
	store, err := Open("widgets", t.TempDir(), 4, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Put(1, []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("get: got %q, want %q", got, "hello")
	}

	if !store.Exists(1) {
		t.Fatalf("exists(1): expected true")
	}

	if err := store.Delete(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Exists(1) {
		t.Fatalf("exists(1) after delete: expected false")
	}
	if _, err := store.Get(1); err != ErrNotFound {
		t.Fatalf("get after delete: got err=%v, want ErrNotFound", err)
	}
}

func TestStoreRevisionsOnOverwrite(t *testing.T) {
	store, err := Open("widgets", t.TempDir(), 2, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Put(42, []byte("v1")); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if err := store.Put(42, []byte("v2")); err != nil {
		t.Fatalf("put v2: %v", err)
	}

	got, err := store.Get(42)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Fatalf("get: got %q, want %q", got, "v2")
	}

	stats := store.Stats()
	if stats.Size != 1 {
		t.Fatalf("size: got %d, want 1", stats.Size)
	}
}

func TestStoreRejectsZeroID(t *testing.T) {
	store, err := Open("widgets", t.TempDir(), 2, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Put(0, []byte("x")); err != ErrEmptyKey {
		t.Fatalf("put(0): got %v, want ErrEmptyKey", err)
	}
}

func TestStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := Open("widgets", dir, 4, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(1, []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Put(2, []byte("world")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Delete(2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open("widgets", dir, 4, 0)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	if !reopened.Exists(1) {
		t.Fatalf("exists(1) after reopen: expected true")
	}
	if reopened.Exists(2) {
		t.Fatalf("exists(2) after reopen: expected false (deleted before close)")
	}
	got, err := reopened.Get(1)
	if err != nil {
		t.Fatalf("get(1) after reopen: %v", err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("get(1) after reopen: got %q, want %q", got, "hello")
	}
}

func TestStoreManyShardsProbeChain(t *testing.T) {
	store, err := Open("stress", t.TempDir(), 8, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	for id := uint64(1); id <= 500; id++ {
		if err := store.Put(id, []byte{byte(id)}); err != nil {
			t.Fatalf("put(%d): %v", id, err)
		}
	}

	for id := uint64(1); id <= 500; id++ {
		if !store.Exists(id) {
			t.Fatalf("exists(%d): expected true after bulk insert", id)
		}
	}

	stats := store.Stats()
	if stats.Size != 500 {
		t.Fatalf("size: got %d, want 500", stats.Size)
	}
}

func TestStoreOperationsAfterCloseReturnErrClosed(t *testing.T) {
	store, err := Open("widgets", t.TempDir(), 4, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Put(1, []byte("hello")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := store.Put(2, []byte("world")); !errors.Is(err, ErrClosed) {
		t.Fatalf("put after close: got %v, want ErrClosed", err)
	}
	if _, err := store.Get(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("get after close: got %v, want ErrClosed", err)
	}
	if err := store.Delete(1); !errors.Is(err, ErrClosed) {
		t.Fatalf("delete after close: got %v, want ErrClosed", err)
	}
	if store.Exists(1) {
		t.Fatalf("exists after close: expected false")
	}

	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
