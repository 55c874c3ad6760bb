// Package harness wires the fault trap, the timing primitive and the
// frequency calibrator into the report the CLI prints.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/cwbudde/insn-bench/internal/affinity"
	"github.com/cwbudde/insn-bench/internal/bench"
	"github.com/cwbudde/insn-bench/internal/calibrate"
	"github.com/cwbudde/insn-bench/internal/config"
	"github.com/cwbudde/insn-bench/internal/cpu"
	"github.com/cwbudde/insn-bench/internal/notes"
	"github.com/cwbudde/insn-bench/internal/probe"
	"github.com/cwbudde/insn-bench/internal/trap"
	"github.com/cwbudde/insn-bench/internal/version"
)

// ReportTitle heads every report.
const ReportTitle = "insn-bench latency / throughput benchmark report"

// Runner executes a diagnostic command; ok is false when it is unavailable.
type Runner interface {
	Run(ctx context.Context, command string) (out string, ok bool)
}

// Harness owns the process-wide measurement state.
type Harness struct {
	cfg    config.Config
	out    io.Writer
	logger *log.Logger

	reg   *trap.Registry
	trap  *trap.Trap
	guard trap.Guard

	bench bench.Bench
	cal   *calibrate.Calibrator
	ops   []bench.Op

	runner   Runner
	commands probe.Commands
	commit   string
	features cpu.Features

	trapArgs []string
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithBench replaces the hardware timing primitive.
func WithBench(b bench.Bench) Option {
	return func(h *Harness) { h.bench = b }
}

// WithOps replaces the instruction probe list.
func WithOps(ops []bench.Op) Option {
	return func(h *Harness) { h.ops = ops }
}

// WithRunner replaces the diagnostic command runner.
func WithRunner(r Runner) Option {
	return func(h *Harness) { h.runner = r }
}

// WithCommands replaces the platform command table entry.
func WithCommands(c probe.Commands) Option {
	return func(h *Harness) { h.commands = c }
}

// WithCommit overrides the build identifier in the header.
func WithCommit(commit string) Option {
	return func(h *Harness) { h.commit = commit }
}

// WithGuard routes guarded calls through g instead of the harness's trap.
func WithGuard(g trap.Guard) Option {
	return func(h *Harness) { h.guard = g }
}

// WithTrapArgs sets the arguments a probe child is started with.
func WithTrapArgs(args []string) Option {
	return func(h *Harness) { h.trapArgs = args }
}

// New builds a harness and registers every guarded op. Probe children must
// be built with the same configuration so the registries agree.
func New(cfg config.Config, out io.Writer, opts ...Option) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Harness{
		cfg:      cfg,
		out:      out,
		logger:   log.New(io.Discard, "", 0),
		reg:      trap.NewRegistry(),
		bench:    bench.Counter{Coefficient: cfg.Coefficient},
		ops:      bench.Ops(),
		runner:   probe.NewRunner(),
		commands: probe.Local(),
		commit:   version.Commit(),
		features: cpu.DetectFeatures(),
	}

	for _, opt := range opts {
		opt(h)
	}

	trapOpts := []trap.Option{trap.WithLogger(h.logger)}
	if h.trapArgs != nil {
		trapOpts = append(trapOpts, trap.WithArgs(h.trapArgs))
	}

	h.trap = trap.New(h.reg, trapOpts...)
	if h.guard == nil {
		h.guard = h.trap
	}

	h.cal = calibrate.New(h.bench, cfg.Coefficient, cfg.Warmup)
	if err := h.cal.Register(h.reg); err != nil {
		return nil, err
	}

	if err := h.registerProbes(); err != nil {
		return nil, err
	}

	if err := h.registerSelfTest(); err != nil {
		return nil, err
	}

	return h, nil
}

// Config returns the settings the harness was built with.
func (h *Harness) Config() config.Config {
	return h.cfg
}

// Registry exposes the guarded ops.
func (h *Harness) Registry() *trap.Registry {
	return h.reg
}

// ServeProbe runs the requested op when this process is a probe child.
// served is false otherwise; when it is true the caller must exit with code.
func (h *Harness) ServeProbe() (code int, served bool) {
	if _, ok := trap.ChildOp(); !ok {
		return 0, false
	}

	affinity.Pin(h.cfg.Core)

	return trap.Serve(h.reg, h.out)
}

// Init installs the fault trap, pins the measuring thread and writes the
// report header.
func (h *Harness) Init() error {
	if h.cfg.Isolate {
		h.trap.Install()
	}

	if affinity.Pin(h.cfg.Core) {
		h.logger.Printf("pinned to core %d", h.cfg.Core)
	} else {
		h.logger.Printf("not pinned (core %d)", h.cfg.Core)
	}

	if cores, err := affinity.Current(); err == nil {
		h.logger.Printf("measuring thread may run on cores %v", cores)
	}

	n := h.section(ReportTitle, notes.Title)
	n.Put("Generated by insn-bench (commit: %s).", h.commit)

	return n.Close()
}

// Close restores the state Init changed.
func (h *Harness) Close() {
	h.trap.Uninstall()
}

// sectionWriter is a report section being written.
type sectionWriter interface {
	notes.Sink
	Close() error
}

func (h *Harness) section(title string, level int) sectionWriter {
	return notes.New(h.out, h.cfg.Markdown, title, level)
}

// DumpUname reports the OS identification.
func (h *Harness) DumpUname(ctx context.Context) error {
	return h.dump(ctx, "uname -a", h.commands.Uname)
}

// DumpCPUInfo reports the OS's processor description.
func (h *Harness) DumpCPUInfo(ctx context.Context) error {
	return h.dump(ctx, "Processor information", h.commands.CPUInfo)
}

func (h *Harness) dump(ctx context.Context, title, command string) error {
	n := h.section(title, notes.Heading)

	if command == "" {
		n.Put("(not available)")
		return n.Close()
	}

	n.Put("`%s`:", command)

	if out, ok := h.runner.Run(ctx, command); ok {
		n.Quote(out)
	} else {
		h.logger.Printf("%s: command unavailable", command)
		n.Put("(not available)")
	}

	return n.Close()
}

// DumpFeatures reports the feature flags and the cycle counter in use.
func (h *Harness) DumpFeatures() error {
	n := h.section("CPU features", notes.Heading)

	n.Put("architecture: %s, counter: %s at %.2f MHz", h.features.Architecture, cpu.CounterName, cpu.CounterFrequency()/1e6)
	n.Newline()

	names := h.features.Names()
	if len(names) == 0 {
		n.Put("(none reported)")
	}

	for _, name := range names {
		n.Item("%s", name)
	}

	return n.Close()
}

// EstimateFrequency calibrates the clock and reports every trial. It returns
// the mean frequency in Hz.
func (h *Harness) EstimateFrequency(ctx context.Context, trials int) (float64, error) {
	n := h.section("CPU frequency estimation", notes.Heading)
	n.Put("measuring CPU frequency, assuming latency of 64bit addition is %g cycle(s):", calibrate.AddLatencyCycles)
	n.Newline()

	est, err := h.cal.Estimate(ctx, h.guard, trials)
	if err != nil {
		if errors.Is(err, calibrate.ErrUnsupported) {
			n.Put("unsupported: the calibration add trapped")
		} else {
			n.Put("failed: %v", err)
		}

		_ = n.Close()

		return 0, err
	}

	for _, f := range est.Trials {
		n.Item("%.2f MHz", f/1e6)
	}

	n.Newline()
	n.Put("mean: %.2f MHz", est.Mean/1e6)
	n.Put("(assumes the clock does not scale during measurement; spread between trials means it did)")

	return est.Mean, n.Close()
}

// SelfTest checks that an illegal instruction inside a guarded call is
// trapped and that the trap is usable again afterwards. protected reports
// whether both held.
func (h *Harness) SelfTest(ctx context.Context) (protected bool, err error) {
	n := h.section("Fault trap self-test", notes.Heading)

	switch {
	case !h.trap.Installed():
		n.Put("fault trap not installed: an illegal instruction would terminate the run")
		return false, n.Close()
	case !bench.HasIllegal:
		n.Put("no illegal instruction available on %s", h.features.Architecture)
		return false, n.Close()
	}

	out, err := h.guard.Call(ctx, selfTestIllegal)
	if err != nil {
		n.Put("failed: %v", err)
		_ = n.Close()

		return false, err
	}

	n.Item("illegal instruction: %s", describe(out))

	after, err := h.guard.Call(ctx, selfTestAdd)
	if err != nil {
		n.Put("failed: %v", err)
		_ = n.Close()

		return false, err
	}

	n.Item("add after trap: %s", describe(after))

	return out.Trapped && after.Completed(), n.Close()
}

func describe(o trap.Outcome) string {
	if o.Trapped {
		return "trapped"
	}

	return "completed"
}

const (
	selfTestIllegal = "selftest/illegal"
	selfTestAdd     = "selftest/add"
)

func (h *Harness) registerSelfTest() error {
	if bench.HasIllegal {
		err := h.reg.Register(selfTestIllegal, func() (float64, error) {
			bench.Illegal()
			return 0, fmt.Errorf("illegal instruction executed")
		})
		if err != nil {
			return err
		}
	}

	return h.reg.Register(selfTestAdd, func() (float64, error) {
		s, err := h.bench.Latency(bench.Add, bench.Unroll*1024)
		if err != nil {
			return 0, err
		}

		return s.Ratio, nil
	})
}
