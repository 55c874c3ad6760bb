//go:build (!amd64 && !arm64) || purego

package cpu

import "time"

// epoch is the reference point for fallback counter values.
var epoch = time.Now()

// readCycleCounter falls back to the monotonic clock on platforms without
// assembly support. Returns nanoseconds since package initialisation.
func readCycleCounter() int64 {
	return time.Since(epoch).Nanoseconds()
}

// getCounterFrequencyHz reports the fallback counter rate: one tick per
// nanosecond.
func getCounterFrequencyHz() int64 {
	return 1_000_000_000
}

// CounterName names the counter behind ReadCycleCounter.
const CounterName = "time.Now"
