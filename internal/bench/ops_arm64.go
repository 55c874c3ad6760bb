//go:build arm64 && !purego

package bench

// Implemented in kernels_arm64.s
func addLatency(blocks int64) int64
func addThroughput(blocks int64) int64
func mulLatency(blocks int64) int64
func mulThroughput(blocks int64) int64
func crc32cxLatency(blocks int64) int64
func crc32cxThroughput(blocks int64) int64
func illegal()

// HasIllegal reports whether Illegal is available.
const HasIllegal = true

// Add is the 64-bit register add used for frequency calibration.
var Add = Op{
	Name:        "add",
	Description: "ADD Xd, Xn, Xm",
	latency:     addLatency,
	throughput:  addThroughput,
}

var archOps = []Op{
	Add,
	{
		Name:        "mul",
		Description: "MUL Xd, Xn, Xm",
		latency:     mulLatency,
		throughput:  mulThroughput,
	},
	{
		Name:        "crc32cx",
		Description: "CRC32CX Wd, Wn, Xm",
		Feature:     "crc32",
		latency:     crc32cxLatency,
		throughput:  crc32cxThroughput,
	},
}

func illegalInsn() {
	illegal()
}
