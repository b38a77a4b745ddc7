package sentry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher monitors the sentry slot for changes using fsnotify with a
// stat-polling fallback. It watches the slot's parent directory because the
// file may not exist yet when the daemon starts.
type Watcher struct {
	// path is the absolute path to the sentry slot being monitored.
	path string
	// events delivers a signal each time the slot changes.
	// The channel is buffered to 1 so back-to-back writes coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to signal goroutines to exit.
	done chan struct{}
	// mu guards fsw: the watch goroutine may swap to polling while Close
	// runs concurrently.
	mu sync.Mutex
	// fsw is the underlying fsnotify watcher; nil when polling.
	fsw *fsnotify.Watcher
	// once ensures [Watcher.Close] is idempotent.
	once sync.Once
	// polling is true when the watcher has fallen back to stat-based polling.
	polling atomic.Bool
	// pollInterval is the duration between stat calls in polling mode.
	pollInterval time.Duration
}

// Watch creates a Watcher for the store's slot. It uses fsnotify as the
// primary change detection mechanism and falls back to polling if fsnotify
// is unavailable.
func (s *Store) Watch() (*Watcher, error) {
	w := &Watcher{
		path:         s.path,
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: 2 * time.Second,
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	if err := fsw.Add(filepath.Dir(s.path)); err != nil {
		slog.Info("cannot watch sentry directory, falling back to polling", "path", s.path, "error", err)
		fsw.Close()
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	w.fsw = fsw
	go w.watch(fsw)
	return w, nil
}

// Polling reports whether the watcher is using polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal when the slot changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		fsw := w.fsw
		w.fsw = nil
		w.mu.Unlock()
		if fsw != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
		}
	})
	return err
}

// watch loops over fsnotify directory events, forwarding write/create/rename
// notifications for the slot file to the events channel. Rename is included
// because atomic replacement lands as a rename onto the slot path. fsw is
// passed in rather than read from the struct so the loop never observes the
// field mid-swap.
func (w *Watcher) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.notify()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Info("fsnotify error, switching to polling", "error", err)
			w.switchToPolling(fsw)
			return
		}
	}
}

// switchToPolling retires fsw and starts the stat-polling loop. The struct
// field is cleared under the mutex so a concurrent Close sees either the
// live watcher or nil, never a closed one it will close again unaware.
func (w *Watcher) switchToPolling(fsw *fsnotify.Watcher) {
	w.mu.Lock()
	if w.fsw == fsw {
		w.fsw = nil
	}
	w.mu.Unlock()
	fsw.Close()
	w.polling.Store(true)
	go w.poll()
}

// poll periodically stats the slot and sends a notification when the
// modification time advances. It runs as a fallback when fsnotify is
// unavailable.
func (w *Watcher) poll() {
	var lastMod time.Time
	if info, err := os.Stat(w.path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				w.notify()
			}
		}
	}
}

// notify sends a single signal to the events channel. If a signal is already
// pending the call is a no-op, coalescing rapid successive changes.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
		// Channel already has a pending event, skip
	}
}
