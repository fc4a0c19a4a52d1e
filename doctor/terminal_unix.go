//go:build !windows

package doctor

import (
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

func resetTerminal() {
	exec.Command("stty", "sane").Run()
}

// setupInterruptHandler runs release before exiting on Ctrl+C so the
// transmitter is never left keyed.
func setupInterruptHandler(release func()) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		release()
		println("\nInterrupted")
		os.Exit(1)
	}()
}
