//go:build !linux

package affinity

import (
	"errors"
	"runtime"
)

// errUnsupported is returned by Current where the OS has no thread affinity
// call reachable without cgo.
var errUnsupported = errors.New("affinity: not supported on " + runtime.GOOS)

func pin(int) bool {
	runtime.LockOSThread()
	return false
}

// Current returns the cores the calling thread may run on.
func Current() ([]int, error) {
	return nil, errUnsupported
}
