// Package probe runs external diagnostic commands and captures their output.
package probe

import (
	"context"
	"io"
	"os/exec"
	"runtime"
)

const (
	// DefaultChunkSize is the size of a single read from the child's stdout.
	DefaultChunkSize = 4096

	// initialCapacity is where the destination buffer starts before doubling.
	initialCapacity = 1024
)

// Runner executes commands through the OS shell.
type Runner struct {
	// ChunkSize bounds a single read. Output larger than one chunk is
	// accumulated; there is no upper bound on the captured size.
	ChunkSize int

	// Shell is the interpreter and its "run this string" flag.
	Shell []string
}

// NewRunner returns a Runner for the current OS.
func NewRunner() *Runner {
	return &Runner{ChunkSize: DefaultChunkSize, Shell: DefaultShell(runtime.GOOS)}
}

// DefaultShell returns the shell invocation for goos.
func DefaultShell(goos string) []string {
	if goos == "windows" {
		return []string{"cmd", "/C"}
	}

	return []string{"sh", "-c"}
}

// Run executes command and returns everything it wrote to stdout. ok is
// false when the command could not be spawned or wrote nothing, whatever its
// exit status (a shell reports a missing command that way). Output of a
// command that fails after writing is still returned.
func (r *Runner) Run(ctx context.Context, command string) (out string, ok bool) {
	shell := r.Shell
	if len(shell) == 0 {
		shell = DefaultShell(runtime.GOOS)
	}

	args := append(append([]string{}, shell[1:]...), command)
	cmd := exec.CommandContext(ctx, shell[0], args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", false
	}
	defer stdout.Close()

	if err := cmd.Start(); err != nil {
		return "", false
	}

	data := capture(stdout, r.chunkSize())

	// Wait reaps the child; its status only matters through the output.
	_ = cmd.Wait()

	if len(data) == 0 {
		return "", false
	}

	return string(data), true
}

func (r *Runner) chunkSize() int {
	if r.ChunkSize <= 0 {
		return DefaultChunkSize
	}

	return r.ChunkSize
}

// capture reads src to the end in chunkSize reads. A read error ends the
// capture and keeps what arrived before it.
func capture(src io.Reader, chunkSize int) []byte {
	chunk := make([]byte, chunkSize)
	dst := make([]byte, 0, initialCapacity)

	for {
		n, err := src.Read(chunk)
		if n > 0 {
			dst = grow(dst, n)
			dst = append(dst, chunk[:n]...)
		}

		if err != nil {
			return dst
		}
	}
}

// grow makes room for n more bytes, doubling the capacity as often as needed.
func grow(b []byte, n int) []byte {
	need := len(b) + n
	if need <= cap(b) {
		return b
	}

	c := cap(b)
	if c == 0 {
		c = initialCapacity
	}

	for c < need {
		c *= 2
	}

	nb := make([]byte, len(b), c)
	copy(nb, b)

	return nb
}
