package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// setupSignalHandler sets up signal handling for graceful shutdown
// Returns a channel that will be closed when a shutdown signal is received
func setupSignalHandler() <-chan struct{} {
	shutdown := make(chan struct{})

	// SIGINT (Ctrl+C), SIGTERM (termination), and SIGPIPE (broken pipe)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGPIPE)

	go func() {
		sig := <-sigChan

		fmt.Fprintf(os.Stderr, "\nReceived signal: %v\n", sig)

		// the scan stops before the next file and the hash cache gets flushed
		close(shutdown)
		signal.Stop(sigChan)

		if sig != syscall.SIGPIPE {
			fmt.Fprintf(os.Stderr, "Finishing current file and saving hash cache...\n")
		}
	}()

	return shutdown
}
