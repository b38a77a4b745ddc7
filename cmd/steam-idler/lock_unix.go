// PID-file locking for non-Windows platforms, built on flock(2).
//
// Exactly one idler may run per data directory: two instances logging on
// the same account would fight over the session. The advisory lock on the
// PID file is how that exclusion is enforced.

//go:build !windows

package main

import (
	"fmt"
	"os"
	"syscall"
)

// ///////////////////////////////////////////////
// File Locking
// ///////////////////////////////////////////////

// lockFile takes an exclusive advisory lock on f without blocking. When
// another process holds the lock, flock fails immediately with EWOULDBLOCK,
// which is the signal that a second idler instance is already up.
func lockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		return fmt.Errorf("lock file %s: %w", f.Name(), err)
	}
	return nil
}

// unlockFile drops the advisory lock on f. Closing the descriptor releases
// it too, so this exists for the paths that keep the file open afterward.
func unlockFile(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		return fmt.Errorf("unlock file %s: %w", f.Name(), err)
	}
	return nil
}
