package probe

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("tests use POSIX shell commands")
	}

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no sh in PATH")
	}
}

func TestCaptureAcrossChunkBoundaries(t *testing.T) {
	src := bytes.Repeat([]byte("0123456789abcdef\n"), 1000)

	for _, chunk := range []int{1, 7, 64, 4096, 1 << 20} {
		got := capture(bytes.NewReader(src), chunk)
		assert.Equal(t, src, got, "chunk=%d", chunk)

		// Short reads from the source must not lose or duplicate bytes.
		got = capture(iotest.HalfReader(bytes.NewReader(src)), chunk)
		assert.Equal(t, src, got, "half reader chunk=%d", chunk)
	}
}

func TestCaptureKeepsDataBeforeError(t *testing.T) {
	r := iotest.TimeoutReader(bytes.NewReader([]byte("first")))

	got := capture(r, 16)
	assert.Equal(t, []byte("first"), got)
}

func TestGrowDoubles(t *testing.T) {
	b := make([]byte, 0, initialCapacity)

	b = grow(b, 10)
	assert.Equal(t, initialCapacity, cap(b), "fits: no reallocation")

	b = append(b, make([]byte, initialCapacity)...)[:initialCapacity]
	b = grow(b, 1)
	assert.Equal(t, 2*initialCapacity, cap(b))
	assert.Len(t, b, initialCapacity)

	b = grow(b, 5*initialCapacity)
	assert.Equal(t, 8*initialCapacity, cap(b))

	assert.Equal(t, initialCapacity, cap(grow(nil, 1)))
}

func TestRunSmallOutput(t *testing.T) {
	skipWithoutShell(t)

	out, ok := NewRunner().Run(context.Background(), "printf 'hello\\nworld\\n'")
	require.True(t, ok)
	assert.Equal(t, "hello\nworld\n", out)
}

func TestRunMatchesDirectCapture(t *testing.T) {
	skipWithoutShell(t)

	const command = "i=0; while [ $i -lt 5000 ]; do echo line-$i; i=$((i+1)); done"

	want, err := exec.Command("sh", "-c", command).Output()
	require.NoError(t, err)
	require.Greater(t, len(want), 64*100)

	r := &Runner{ChunkSize: 64, Shell: []string{"sh", "-c"}}

	got, ok := r.Run(context.Background(), command)
	require.True(t, ok)
	assert.Len(t, got, len(want))
	assert.Equal(t, string(want), got)
}

func TestRunMissingCommand(t *testing.T) {
	skipWithoutShell(t)

	out, ok := NewRunner().Run(context.Background(), "insnbench-no-such-command-xyz")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRunEmptyOutputIsUnavailable(t *testing.T) {
	skipWithoutShell(t)

	for _, command := range []string{"true", ":", "exit 0"} {
		out, ok := NewRunner().Run(context.Background(), command)
		assert.False(t, ok, command)
		assert.Empty(t, out, command)
	}
}

func TestRunFailureAfterOutput(t *testing.T) {
	skipWithoutShell(t)

	out, ok := NewRunner().Run(context.Background(), "echo partial; exit 3")
	require.True(t, ok)
	assert.Equal(t, "partial\n", out)
}

func TestRunMissingShell(t *testing.T) {
	r := &Runner{Shell: []string{"/nonexistent/insnbench/sh", "-c"}}

	out, ok := r.Run(context.Background(), "echo hi")
	assert.False(t, ok)
	assert.Empty(t, out)
}

func TestRunCancelled(t *testing.T) {
	skipWithoutShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := NewRunner().Run(ctx, "echo hi")
	assert.False(t, ok)
}

func TestCommandsFor(t *testing.T) {
	tests := []struct {
		goos    string
		uname   string
		cpuInfo string
	}{
		{"linux", "uname -a", "lscpu"},
		{"darwin", "uname -a", "system_profiler SPHardwareDataType"},
		{"freebsd", "uname -a", "sysctl hw.model hw.machine hw.ncpu"},
		{"windows", "ver", "wmic cpu get Name,MaxClockSpeed,NumberOfCores"},
		{"plan9", "uname -a", ""},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			c := CommandsFor(tt.goos)
			assert.Equal(t, tt.uname, c.Uname)
			assert.Equal(t, tt.cpuInfo, c.CPUInfo)
		})
	}

	assert.Equal(t, CommandsFor(runtime.GOOS), Local())
}

func TestDefaultShell(t *testing.T) {
	assert.Equal(t, []string{"cmd", "/C"}, DefaultShell("windows"))
	assert.True(t, strings.HasSuffix(DefaultShell("linux")[0], "sh"))
}
