//go:build amd64 && !purego

package cpu

// readCycleCounter reads the CPU timestamp counter using RDTSC.
// Implemented in cycles_amd64.s
func readCycleCounter() int64

// getCounterFrequencyHz returns 0: the TSC rate has to be calibrated.
func getCounterFrequencyHz() int64 {
	return 0
}

// CounterName names the counter behind ReadCycleCounter.
const CounterName = "rdtsc"
