package trap

import (
	"bytes"
	"os/exec"
)

// illegalInstruction reports whether a probe child died of an illegal
// instruction. Plan 9 reports the trap in the exit message.
func illegalInstruction(exitErr *exec.ExitError, stderr []byte) bool {
	msg := []byte(exitErr.String())

	return bytes.Contains(msg, []byte("illegal")) ||
		bytes.Contains(stderr, []byte("SIGILL: illegal instruction"))
}
