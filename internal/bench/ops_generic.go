//go:build (!amd64 && !arm64) || purego

package bench

// HasIllegal reports whether Illegal is available. Without assembly there
// is no way to emit an undefined instruction.
const HasIllegal = false

// step is read through a variable so the compiler cannot fold the chain.
var step int64 = 1

// Add is the 64-bit add used for frequency calibration. Without assembly the
// loop is compiled Go, so the chain carries loop overhead the compiler may
// or may not hide; estimates on these platforms are coarse.
var Add = Op{
	Name:        "add",
	Description: "int64 add (compiled Go)",
	latency:     addLatencyGo,
	throughput:  addThroughputGo,
}

var archOps = []Op{Add}

//go:noinline
func addLatencyGo(blocks int64) int64 {
	var x int64

	s := step
	for i := blocks; i > 0; i-- {
		x += s
		x += s
		x += s
		x += s
		x += s
		x += s
		x += s
		x += s
	}

	return x
}

//go:noinline
func addThroughputGo(blocks int64) int64 {
	var a, b, c, d, e, f, g, h int64

	s := step
	for i := blocks; i > 0; i-- {
		a += s
		b += s
		c += s
		d += s
		e += s
		f += s
		g += s
		h += s
	}

	return a + b + c + d + e + f + g + h
}

func illegalInsn() {
	panic("bench: no illegal instruction on this architecture")
}
