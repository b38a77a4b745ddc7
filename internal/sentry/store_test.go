package sentry

import (
	"bytes"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// ///////////////////////////////////////////////
// Store Tests
// ///////////////////////////////////////////////

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "sentry.bin"))
}

func TestExistsEmptySlot(t *testing.T) {
	s := newTestStore(t)
	if s.Exists() {
		t.Error("Exists() = true for a slot that was never written")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	blob := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}

	if err := s.Write(blob); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !s.Exists() {
		t.Error("Exists() = false after Write")
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Read() = %x, want %x", got, blob)
	}
}

func TestWriteOverwritesPreviousValue(t *testing.T) {
	s := newTestStore(t)

	if err := s.Write([]byte("old-sentry")); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	if err := s.Write([]byte("new-sentry")); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "new-sentry" {
		t.Errorf("Read() = %q, want %q", got, "new-sentry")
	}
}

func TestWriteIdempotentForIdenticalBlob(t *testing.T) {
	s := newTestStore(t)
	blob := []byte("same-sentry")

	for i := 0; i < 3; i++ {
		if err := s.Write(blob); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("Read() = %q, want %q", got, blob)
	}
}

func TestReadMissingSlot(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read(); err == nil {
		t.Fatal("expected error reading a missing slot")
	}
}

// ///////////////////////////////////////////////
// Watcher Tests
// ///////////////////////////////////////////////

// waitForEvent blocks until the watcher delivers an event or the timeout expires.
func waitForEvent(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Events():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherSeesSlotCreation(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := s.Write([]byte("fresh")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if !waitForEvent(t, w, 5*time.Second) {
		t.Fatal("no event after slot creation")
	}
}

func TestWatcherCoalescesRapidWrites(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	for i := 0; i < 5; i++ {
		if err := s.Write([]byte{byte(i)}); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	if !waitForEvent(t, w, 5*time.Second) {
		t.Fatal("no event after writes")
	}
	// Any pending coalesced signal drains without blocking.
	select {
	case <-w.Events():
	default:
	}
}

func TestWatcherCloseDuringPollingFallback(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if w.Polling() {
		t.Skip("fsnotify unavailable, fallback already active")
	}

	// Close racing the fsnotify-error fallback must not double-manage the
	// underlying watcher.
	fsw := w.fsw
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.switchToPolling(fsw)
	}()
	go func() {
		defer wg.Done()
		if err := w.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}()
	wg.Wait()

	if !w.Polling() {
		t.Error("Polling() = false after fallback")
	}
}

func TestWatcherCloseIdempotent(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Watch()
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
