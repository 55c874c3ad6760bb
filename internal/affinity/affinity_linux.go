//go:build linux

package affinity

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func pin(core int) bool {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Set(core)

	// pid 0 is the calling thread.
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return false
	}

	return true
}

// Current returns the cores the calling thread may run on.
func Current() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, err
	}

	var cores []int

	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cores = append(cores, i)
		}
	}

	return cores, nil
}
