package calibrate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/insn-bench/internal/bench"
	"github.com/cwbudde/insn-bench/internal/trap"
)

// fixedBench reports the ratios in order, repeating the last one.
type fixedBench struct {
	ratios []float64
	calls  int
	reps   []int64
	err    error
}

func (b *fixedBench) next(op bench.Op, mode bench.Mode, reps int64) (bench.Sample, error) {
	if b.err != nil {
		return bench.Sample{}, b.err
	}

	b.reps = append(b.reps, reps)

	i := b.calls
	if i >= len(b.ratios) {
		i = len(b.ratios) - 1
	}

	b.calls++

	return bench.Sample{Op: op.Name, Mode: mode, Reps: reps, Ratio: b.ratios[i]}, nil
}

func (b *fixedBench) Latency(op bench.Op, reps int64) (bench.Sample, error) {
	return b.next(op, bench.Latency, reps)
}

func (b *fixedBench) Throughput(op bench.Op, reps int64) (bench.Sample, error) {
	return b.next(op, bench.Throughput, reps)
}

func inProcess(t *testing.T, c *Calibrator) trap.Guard {
	t.Helper()

	reg := trap.NewRegistry()
	require.NoError(t, c.Register(reg))

	return trap.New(reg)
}

func TestEstimateClosedForm(t *testing.T) {
	const ratio = 0.04

	c := New(&fixedBench{ratios: []float64{ratio}}, DefaultCoefficient, DefaultWarmup)

	est, err := c.Estimate(context.Background(), inProcess(t, c), 4)
	require.NoError(t, err)

	want := DefaultCoefficient / (AddLatencyCycles * ratio)

	require.Len(t, est.Trials, 4)

	for _, f := range est.Trials {
		assert.Positive(t, f)
		assert.InDelta(t, want, f, 1e-3)
	}

	assert.InDelta(t, want, est.Mean, 1e-3)
	assert.InDelta(t, 2500.0, est.Mean/1e6, 1e-9)
}

func TestEstimateMean(t *testing.T) {
	// Three runs per trial; the trials see ratio 0.05, 0.04 and 0.025 last.
	b := &fixedBench{ratios: []float64{1, 1, 0.05, 1, 1, 0.04, 1, 1, 0.025}}
	c := New(b, 1e8, 3)

	est, err := c.Estimate(context.Background(), inProcess(t, c), 3)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2e9, 2.5e9, 4e9}, est.Trials, 1e-3)
	assert.InDelta(t, (2e9+2.5e9+4e9)/3, est.Mean, 1e-3)
	assert.Equal(t, 9, b.calls)
}

func TestEstimateTakesLastOfWarmup(t *testing.T) {
	b := &fixedBench{ratios: []float64{10, 20, 0.1}}
	c := New(b, 1e6, 3)

	est, err := c.Estimate(context.Background(), inProcess(t, c), 1)
	require.NoError(t, err)

	assert.InDelta(t, 1e7, est.Mean, 1e-6)
	assert.Equal(t, []int64{1e6, 1e6, 1e6}, b.reps)
}

func TestEstimateDeterministic(t *testing.T) {
	run := func() Estimate {
		c := New(&fixedBench{ratios: []float64{0.037}}, DefaultCoefficient, DefaultWarmup)

		est, err := c.Estimate(context.Background(), inProcess(t, c), 3)
		require.NoError(t, err)

		return est
	}

	first := run()
	for range 5 {
		assert.Equal(t, first, run())
	}
}

// trappingGuard reports every call as trapped.
type trappingGuard struct{}

func (trappingGuard) Call(context.Context, string) (trap.Outcome, error) {
	return trap.Outcome{Trapped: true}, nil
}

func TestEstimateTrapped(t *testing.T) {
	c := New(&fixedBench{ratios: []float64{0.04}}, 0, 0)

	_, err := c.Estimate(context.Background(), trappingGuard{}, 3)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestEstimateBadSample(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
	}{
		{"zero", 0},
		{"negative", -1},
		{"NaN", math.NaN()},
		{"+Inf", math.Inf(1)},
		{"-Inf", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fixedBench{ratios: []float64{tt.ratio}}, 0, 0)

			est, err := c.Estimate(context.Background(), inProcess(t, c), 2)
			require.ErrorIs(t, err, ErrBadSample)
			assert.Empty(t, est.Trials)
			assert.Zero(t, est.Mean)
		})
	}
}

func TestEstimateBenchError(t *testing.T) {
	errTimer := errors.New("timer gone")
	c := New(&fixedBench{err: errTimer}, 0, 0)

	_, err := c.Estimate(context.Background(), inProcess(t, c), 2)
	require.ErrorIs(t, err, errTimer)
	assert.Contains(t, err.Error(), "trial 1")
}

func TestEstimateTrials(t *testing.T) {
	c := New(&fixedBench{ratios: []float64{1}}, 0, 0)

	_, err := c.Estimate(context.Background(), inProcess(t, c), 0)
	require.ErrorIs(t, err, ErrTrials)
}

func TestNewDefaults(t *testing.T) {
	c := New(nil, -1, -1)
	assert.Equal(t, DefaultCoefficient, c.Coefficient())
	assert.Equal(t, DefaultWarmup, c.warmup)
}

func TestEstimateWithCounter(t *testing.T) {
	if testing.Short() {
		t.Skip("times a real add chain")
	}

	const coefficient = 1e7

	c := New(bench.Counter{Coefficient: coefficient}, coefficient, 2)

	est, err := c.Estimate(context.Background(), inProcess(t, c), 2)
	require.NoError(t, err)

	for _, f := range est.Trials {
		assert.Positive(t, f)
		t.Logf("trial: %.2f MHz", f/1e6)
	}
}
