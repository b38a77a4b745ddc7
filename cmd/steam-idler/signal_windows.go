// Shutdown signal wiring for Windows, where POSIX SIGTERM does not exist.
//
// Only [os.Interrupt] is registered; the Go runtime already maps
// CTRL_C_EVENT, CTRL_BREAK_EVENT, and console-close to it, which covers the
// ways a console daemon gets stopped on Windows.

//go:build windows

package main

import (
	"os"
	"os/signal"
)

// ///////////////////////////////////////////////
// Signal Handling
// ///////////////////////////////////////////////

// signalChannel registers for os.Interrupt and returns the delivery channel.
// A one-slot buffer keeps a signal from being dropped if it lands while the
// receiver is between selects.
func signalChannel() <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	return ch
}
