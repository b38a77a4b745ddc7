// Shutdown signal wiring for non-Windows platforms.
//
// The daemon stops cleanly on SIGINT (Ctrl+C) and on SIGTERM, which is what
// systemd, launchd, and container runtimes send when stopping a service.

//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel registers for SIGINT and SIGTERM and returns the delivery
// channel. A one-slot buffer keeps a signal from being dropped if it lands
// while the receiver is between selects.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	return ch
}
