//go:build !windows

package shutdown

import (
	"os"
	"syscall"
)

// systemd and docker stop with SIGTERM.
var signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
