// Package affinity binds the measuring thread to one logical core.
//
// Pinning removes scheduler migration as a noise source. It is an
// optimisation, never a requirement: every failure degrades to a no-op.
package affinity

// Pin locks the calling goroutine to its OS thread and asks the OS to run
// that thread on core only. It reports whether the request took effect.
// A negative core leaves scheduling alone.
//
// The goroutine stays locked to its thread even when the OS request fails,
// which keeps consecutive measurements on one thread.
func Pin(core int) bool {
	if core < 0 {
		return false
	}

	return pin(core)
}
