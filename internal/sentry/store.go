// Package sentry persists the Steam machine-auth sentry blob.
//
// The sentry is an opaque hash issued by Steam after a verified login.
// Presenting it on later logins lets the account skip Steam Guard
// challenges, which is what makes unattended operation possible. The
// package stores the blob in a single named slot on disk and can watch
// the slot for external replacement, so an operator may drop in a sentry
// file copied from another machine without restarting the daemon.
package sentry

import (
	"fmt"
	"os"

	"github.com/iiTzT/simple-steam-idler-replit/internal/atomicfile"
)

// ///////////////////////////////////////////////
// Store
// ///////////////////////////////////////////////

// Store is a durable single-slot blob store for the sentry hash.
// Writes are last-writer-wins and atomic at the filesystem level.
type Store struct {
	// path is the absolute path of the sentry slot.
	path string
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the slot's file path.
func (s *Store) Path() string { return s.path }

// Exists reports whether the slot currently holds a blob.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Read returns the stored blob.
func (s *Store) Read() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read sentry slot: %w", err)
	}
	return data, nil
}

// Write replaces the slot's contents with blob. The write is durable and
// atomic; any previous value is overwritten.
func (s *Store) Write(blob []byte) error {
	if err := atomicfile.Write(s.path, blob, 0o600); err != nil {
		return fmt.Errorf("write sentry slot: %w", err)
	}
	return nil
}
