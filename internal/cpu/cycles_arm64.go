//go:build arm64 && !purego

package cpu

// readCycleCounter reads the virtual counter (CNTVCT_EL0).
// Implemented in cycles_arm64.s
func readCycleCounter() int64

// readCounterFrequency reads CNTFRQ_EL0.
// Implemented in cycles_arm64.s
func readCounterFrequency() int64

func getCounterFrequencyHz() int64 {
	return readCounterFrequency()
}

// CounterName names the counter behind ReadCycleCounter.
const CounterName = "cntvct_el0"
