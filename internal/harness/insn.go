package harness

import (
	"context"
	"fmt"

	"github.com/cwbudde/insn-bench/internal/bench"
	"github.com/cwbudde/insn-bench/internal/notes"
)

// probeName is the guarded op timing one instruction in one mode.
func probeName(op string, mode bench.Mode) string {
	return "insn/" + op + "/" + mode.String()
}

func (h *Harness) registerProbes() error {
	for _, op := range h.ops {
		if !h.cfg.Selected(op.Name) {
			continue
		}

		for _, mode := range []bench.Mode{bench.Latency, bench.Throughput} {
			if err := h.reg.Register(probeName(op.Name, mode), h.probe(op, mode)); err != nil {
				return err
			}
		}
	}

	return nil
}

// probe returns the body of one instruction probe: Warmup runs, the last
// one's ratio.
func (h *Harness) probe(op bench.Op, mode bench.Mode) func() (float64, error) {
	return func() (float64, error) {
		var r float64

		for i := 0; i < h.cfg.Warmup; i++ {
			var (
				s   bench.Sample
				err error
			)

			if mode == bench.Latency {
				s, err = h.bench.Latency(op, h.cfg.Repetitions)
			} else {
				s, err = h.bench.Throughput(op, h.cfg.Repetitions)
			}

			if err != nil {
				return 0, err
			}

			r = s.Ratio
		}

		return r, nil
	}
}

// Result is one instruction's measurement.
type Result struct {
	Op          string
	Description string

	// Unsupported is set when either mode trapped; the cycle fields are
	// then meaningless and left zero.
	Unsupported bool

	Latency    float64 // cycles
	Throughput float64 // cycles per instruction
}

// cycles converts a probe ratio to cycles per instruction at hz.
func (h *Harness) cycles(ratio, hz float64) float64 {
	return ratio * hz / h.cal.Coefficient()
}

// MeasureInstructions times every selected instruction and reports the
// results in cycles at hz, the calibrated clock frequency.
func (h *Harness) MeasureInstructions(ctx context.Context, hz float64) ([]Result, error) {
	if hz <= 0 {
		return nil, fmt.Errorf("harness: clock frequency must be positive, got %g", hz)
	}

	n := h.section("Instruction latency / throughput", notes.Heading)
	n.Put("cycles at %.2f MHz, %d instructions per run, last of %d runs:", hz/1e6, h.cfg.Repetitions, h.cfg.Warmup)
	n.Newline()

	var results []Result

	for _, op := range h.ops {
		if !h.cfg.Selected(op.Name) {
			continue
		}

		res, err := h.measure(ctx, op, hz)
		if err != nil {
			n.Put("failed: %s: %v", op.Name, err)
			_ = n.Close()

			return results, err
		}

		results = append(results, res)

		if res.Unsupported {
			n.Item("%s (%s): unsupported (illegal instruction)", op.Name, op.Description)
			continue
		}

		note := ""
		if !op.Supported(h.features) {
			note = fmt.Sprintf(" [ran although %s is not reported]", op.Feature)
		}

		n.Item("%s (%s): latency %.2f, throughput %.2f%s", op.Name, op.Description, res.Latency, res.Throughput, note)
	}

	return results, n.Close()
}

func (h *Harness) measure(ctx context.Context, op bench.Op, hz float64) (Result, error) {
	res := Result{Op: op.Name, Description: op.Description}

	lat, err := h.guard.Call(ctx, probeName(op.Name, bench.Latency))
	if err != nil {
		return res, err
	}

	if lat.Trapped {
		h.logger.Printf("%s: latency probe trapped", op.Name)
		res.Unsupported = true

		return res, nil
	}

	thr, err := h.guard.Call(ctx, probeName(op.Name, bench.Throughput))
	if err != nil {
		return res, err
	}

	if thr.Trapped {
		h.logger.Printf("%s: throughput probe trapped", op.Name)
		res.Unsupported = true

		return res, nil
	}

	res.Latency = h.cycles(lat.Value, hz)
	res.Throughput = h.cycles(thr.Value, hz)

	return res, nil
}
