package cpu

import (
	"sync"
	"time"
)

// ReadCycleCounter reads the CPU's cycle counter (TSC on x86, CNTVCT on ARM).
// This provides high-precision timing for micro-benchmarking.
// On platforms without assembly support, falls back to time.Now().
func ReadCycleCounter() int64 {
	return readCycleCounter()
}

// CyclesSince returns the number of counter ticks elapsed since start.
func CyclesSince(start int64) int64 {
	return ReadCycleCounter() - start
}

// CounterFrequency returns the rate of the cycle counter in ticks per second.
//
// The counter is not the core clock: the TSC ticks at a fixed reference rate
// and CNTVCT_EL0 at the rate published in CNTFRQ_EL0. Converting ticks to
// seconds with this value is what lets the frequency calibrator recover the
// core clock from a dependency chain of known latency.
func CounterFrequency() float64 {
	counterOnce.Do(initCycleCounter)
	return counterFrequencyHz
}

// CyclesToSeconds converts a tick delta to seconds.
func CyclesToSeconds(ticks int64) float64 {
	return float64(ticks) / CounterFrequency()
}

var (
	counterOnce        sync.Once
	counterFrequencyHz float64
)

// calibrationDuration is the wall-clock window used to measure the counter
// rate on platforms without a frequency register.
const calibrationDuration = 10 * time.Millisecond

// initCycleCounter determines the counter frequency.
// On ARM64, reads the hardware frequency register.
// On AMD64, calibrates by measuring ticks over a known time period.
func initCycleCounter() {
	counterFrequencyHz = float64(getCounterFrequencyHz())

	if counterFrequencyHz == 0 {
		counterFrequencyHz = calibrateCycleCounter(calibrationDuration)
	}

	// A counter that did not advance leaves nothing to divide by; treat
	// ticks as nanoseconds, which is what the time.Now fallback returns.
	if counterFrequencyHz <= 0 {
		counterFrequencyHz = 1e9
	}
}

// calibrateCycleCounter measures the counter against the monotonic clock.
func calibrateCycleCounter(window time.Duration) float64 {
	start := time.Now()
	startTicks := ReadCycleCounter()

	for time.Since(start) < window {
		// Spin
	}

	ticks := CyclesSince(startTicks)
	elapsed := time.Since(start)

	if elapsed <= 0 || ticks <= 0 {
		return 0
	}

	return float64(ticks) / elapsed.Seconds()
}
