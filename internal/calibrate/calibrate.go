// Package calibrate estimates the core clock frequency from a dependency
// chain of 64-bit adds.
//
// The estimate assumes the add has a latency of exactly one cycle and that
// the clock does not change while the chain runs. Neither is checked: a
// processor that scales its frequency mid-measurement produces trials that
// disagree, and that spread is the only signal the assumption failed.
package calibrate

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/insn-bench/internal/bench"
	"github.com/cwbudde/insn-bench/internal/trap"
)

// AddLatencyCycles is the assumed latency of a 64-bit register add.
const AddLatencyCycles = 1.0

const (
	// DefaultCoefficient is the length of the calibration chain.
	DefaultCoefficient = 1e8

	// DefaultWarmup is the number of chain runs per trial. Only the last
	// one counts; the earlier runs let the clock settle.
	DefaultWarmup = 3
)

// OpName is the guarded op that times one calibration trial.
const OpName = "calibrate/add64"

// Estimate is the result of one calibration.
type Estimate struct {
	// Trials holds the per-trial frequencies in Hz, in run order.
	Trials []float64

	// Mean is the arithmetic mean of Trials in Hz.
	Mean float64
}

// Calibrator derives the clock frequency from the timing primitive.
type Calibrator struct {
	bench       bench.Bench
	coefficient float64
	warmup      int
}

// New returns a calibrator timing coefficient adds per run and keeping the
// last of warmup runs.
func New(b bench.Bench, coefficient float64, warmup int) *Calibrator {
	if coefficient <= 0 {
		coefficient = DefaultCoefficient
	}

	if warmup <= 0 {
		warmup = DefaultWarmup
	}

	return &Calibrator{bench: b, coefficient: coefficient, warmup: warmup}
}

// Coefficient returns the calibration chain length.
func (c *Calibrator) Coefficient() float64 {
	return c.coefficient
}

// Register adds the calibration op to reg.
func (c *Calibrator) Register(reg *trap.Registry) error {
	return reg.Register(OpName, c.measure)
}

// measure runs the chain warmup times and returns the last ratio.
func (c *Calibrator) measure() (float64, error) {
	var r float64

	for i := 0; i < c.warmup; i++ {
		s, err := c.bench.Latency(bench.Add, int64(c.coefficient))
		if err != nil {
			return 0, err
		}

		r = s.Ratio
	}

	return r, nil
}

// Frequency converts a calibration ratio to Hz.
func (c *Calibrator) Frequency(ratio float64) float64 {
	return c.coefficient / (AddLatencyCycles * ratio)
}

// Estimate runs trials independent calibrations through g.
func (c *Calibrator) Estimate(ctx context.Context, g trap.Guard, trials int) (Estimate, error) {
	if trials <= 0 {
		return Estimate{}, fmt.Errorf("%w: %d", ErrTrials, trials)
	}

	est := Estimate{Trials: make([]float64, 0, trials)}

	var sum float64

	for i := 0; i < trials; i++ {
		out, err := g.Call(ctx, OpName)
		if err != nil {
			return Estimate{}, fmt.Errorf("trial %d: %w", i+1, err)
		}

		if out.Trapped {
			return Estimate{}, ErrUnsupported
		}

		if !(out.Value > 0) || math.IsInf(out.Value, 0) {
			return Estimate{}, fmt.Errorf("%w: trial %d: %g", ErrBadSample, i+1, out.Value)
		}

		f := c.Frequency(out.Value)
		est.Trials = append(est.Trials, f)
		sum += f
	}

	est.Mean = sum / float64(trials)

	return est, nil
}
