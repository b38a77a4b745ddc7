// PID-file locking for Windows, built on LockFileEx/UnlockFileEx from
// [golang.org/x/sys/windows].
//
// Exactly one idler may run per data directory; LOCKFILE_FAIL_IMMEDIATELY
// gives the same non-blocking semantics LOCK_NB provides on Unix.

//go:build windows

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// ///////////////////////////////////////////////
// File Locking
// ///////////////////////////////////////////////

// lockFile takes an exclusive lock on f without blocking; failure means a
// second idler instance already holds the PID file. The lock spans only the
// first byte (offset 0, length 1) because it exists for mutual exclusion,
// not to protect file contents.
func lockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	if err := windows.LockFileEx(
		windows.Handle(f.Fd()),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0,
		1, 0,
		ol,
	); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile drops the one-byte lock on f. Closing the handle releases it
// too, so this exists for the paths that keep the file open afterward.
func unlockFile(f *os.File) error {
	ol := new(windows.Overlapped)
	if err := windows.UnlockFileEx(
		windows.Handle(f.Fd()),
		0,
		1, 0,
		ol,
	); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}
