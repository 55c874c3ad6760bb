//go:build !plan9

package trap

import (
	"bytes"
	"os/exec"
	"syscall"
)

// Banners the Go runtime prints when a fatal illegal-instruction fault
// kills the process.
var illegalBanners = [][]byte{
	[]byte("SIGILL: illegal instruction"),
	[]byte("Exception 0xc000001d"), // STATUS_ILLEGAL_INSTRUCTION on Windows
}

// illegalInstruction reports whether a probe child died of an illegal
// instruction: either killed by SIGILL outright, or by the runtime's fatal
// signal path, which prints the signal name and exits with status 2.
func illegalInstruction(exitErr *exec.ExitError, stderr []byte) bool {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() && ws.Signal() == syscall.SIGILL {
		return true
	}

	for _, banner := range illegalBanners {
		if bytes.Contains(stderr, banner) {
			return true
		}
	}

	return false
}
