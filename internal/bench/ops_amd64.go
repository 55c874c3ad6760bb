//go:build amd64 && !purego

package bench

// Implemented in kernels_amd64.s
func addLatency(blocks int64) int64
func addThroughput(blocks int64) int64
func imulLatency(blocks int64) int64
func imulThroughput(blocks int64) int64
func popcntLatency(blocks int64) int64
func popcntThroughput(blocks int64) int64
func crc32Latency(blocks int64) int64
func crc32Throughput(blocks int64) int64
func illegal()

// HasIllegal reports whether Illegal is available.
const HasIllegal = true

// Add is the 64-bit register add used for frequency calibration.
var Add = Op{
	Name:        "add",
	Description: "ADDQ r64, r64",
	latency:     addLatency,
	throughput:  addThroughput,
}

var archOps = []Op{
	Add,
	{
		Name:        "imul",
		Description: "IMULQ r64, r64",
		latency:     imulLatency,
		throughput:  imulThroughput,
	},
	{
		Name:        "popcnt",
		Description: "POPCNTQ r64, r64",
		Feature:     "popcnt",
		latency:     popcntLatency,
		throughput:  popcntThroughput,
	},
	{
		Name:        "crc32",
		Description: "CRC32Q r64, r64",
		Feature:     "sse4.2",
		latency:     crc32Latency,
		throughput:  crc32Throughput,
	},
}

func illegalInsn() {
	illegal()
}
