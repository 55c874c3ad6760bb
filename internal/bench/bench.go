// Package bench is the timing primitive: it runs an instruction kernel a
// fixed number of times and reports the elapsed counter ticks.
package bench

import (
	"fmt"

	"github.com/cwbudde/insn-bench/internal/cpu"
)

// Unroll is the number of instructions each kernel executes per loop block.
const Unroll = 8

// Mode selects how instances of an instruction relate to each other.
type Mode int

const (
	// Latency chains every instance through the previous result.
	Latency Mode = iota
	// Throughput runs independent instances the core may overlap.
	Throughput
)

func (m Mode) String() string {
	switch m {
	case Latency:
		return "latency"
	case Throughput:
		return "throughput"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Sample is a single raw measurement.
type Sample struct {
	Op    string
	Mode  Mode
	Reps  int64 // instructions actually executed
	Ticks int64 // cycle counter delta

	// Ratio is the elapsed time in seconds, normalised to Coefficient
	// repetitions: seconds * Coefficient / Reps.
	Ratio float64
}

// Bench measures an Op.
type Bench interface {
	Latency(op Op, reps int64) (Sample, error)
	Throughput(op Op, reps int64) (Sample, error)
}

// Kernel runs blocks iterations of Unroll instructions and returns a value
// derived from the result registers.
type Kernel func(blocks int64) int64

// Op describes one instruction the primitive can time.
type Op struct {
	Name        string
	Description string

	// Feature is the cpu.Features flag the instruction depends on, empty
	// for baseline instructions. It is informational only.
	Feature string

	latency    Kernel
	throughput Kernel
}

// Supported reports whether the CPU claims the instruction's feature.
func (o Op) Supported(f cpu.Features) bool {
	return o.Feature == "" || f.Has(o.Feature)
}

// NewOp builds an Op from explicit kernels.
func NewOp(name, description string, latency, throughput Kernel) Op {
	return Op{Name: name, Description: description, latency: latency, throughput: throughput}
}

// Ops lists the instructions available on this architecture.
func Ops() []Op {
	ops := make([]Op, len(archOps))
	copy(ops, archOps)

	return ops
}

// Lookup finds an op by name.
func Lookup(name string) (Op, error) {
	for _, op := range archOps {
		if op.Name == name {
			return op, nil
		}
	}

	return Op{}, fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// Illegal executes an instruction that is undefined on this architecture.
// It must only be called inside a guarded call, and only when HasIllegal.
func Illegal() {
	illegalInsn()
}

// sink keeps kernel results observable.
var sink int64

// Counter is the Bench backed by the hardware cycle counter.
type Counter struct {
	// Coefficient is the repetition count ratios are normalised to.
	Coefficient float64
}

// Latency runs op in a dependency chain.
func (c Counter) Latency(op Op, reps int64) (Sample, error) {
	return c.measure(op, Latency, op.latency, reps)
}

// Throughput runs independent instances of op.
func (c Counter) Throughput(op Op, reps int64) (Sample, error) {
	return c.measure(op, Throughput, op.throughput, reps)
}

func (c Counter) measure(op Op, mode Mode, k Kernel, reps int64) (Sample, error) {
	if k == nil {
		return Sample{}, fmt.Errorf("%w: %s %s", ErrNoKernel, op.Name, mode)
	}

	blocks := reps / Unroll
	if blocks <= 0 {
		return Sample{}, fmt.Errorf("%w: %d < %d", ErrRepetitions, reps, Unroll)
	}

	start := cpu.ReadCycleCounter()
	sink += k(blocks)
	ticks := cpu.CyclesSince(start)

	executed := blocks * Unroll

	return Sample{
		Op:    op.Name,
		Mode:  mode,
		Reps:  executed,
		Ticks: ticks,
		Ratio: cpu.CyclesToSeconds(ticks) * c.Coefficient / float64(executed),
	}, nil
}
