// Package cli is the insnbench command line: flag and config handling around
// the measurement harness.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/cwbudde/insn-bench/internal/bench"
	"github.com/cwbudde/insn-bench/internal/config"
	"github.com/cwbudde/insn-bench/internal/harness"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config       string
	Format       string // "auto" | "markdown" | "text"
	Core         int
	Trials       int
	Warmup       int
	Repetitions  int64
	Coefficient  float64
	NoIsolate    bool
	Instructions []string
	Verbose      bool

	// args are the arguments a probe child is re-executed with.
	args []string

	h *harness.Harness
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"auto", "markdown", "text"}

// NewRootCommand creates the root command. args is the argument list the
// command will parse; probe children are started with the same list.
func NewRootCommand(args []string) *cobra.Command {
	opts := &RootOptions{args: args}

	cmd := &cobra.Command{
		Use:   "insnbench",
		Short: "Measure instruction latency and throughput in CPU cycles",
		Long: `insnbench estimates the CPU clock from the latency of a dependent
64-bit add chain, then times instructions in dependency chains (latency) and
in independent streams (throughput), reporting both in cycles.

Every measurement runs behind a fault trap: an instruction the CPU does not
implement is reported as unsupported instead of terminating the run.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.h != nil {
				opts.h.Close()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), opts)
		},
	}

	d := config.Default()

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "auto", "output format (auto|markdown|text)")
	cmd.PersistentFlags().IntVar(&opts.Core, "core", d.Core, "pin the measuring thread to this core (-1 disables pinning)")
	cmd.PersistentFlags().IntVar(&opts.Trials, "trials", d.Trials, "frequency estimates averaged")
	cmd.PersistentFlags().IntVar(&opts.Warmup, "warmup", d.Warmup, "runs per measurement, only the last counts")
	cmd.PersistentFlags().Int64Var(&opts.Repetitions, "repetitions", d.Repetitions, "instructions per probe run")
	cmd.PersistentFlags().Float64Var(&opts.Coefficient, "coefficient", d.Coefficient, "length of the calibration add chain")
	cmd.PersistentFlags().BoolVar(&opts.NoIsolate, "no-isolate", false, "run probes in-process without the fault trap")
	cmd.PersistentFlags().StringSliceVarP(&opts.Instructions, "insn", "i", nil, "instructions to probe (default all)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose diagnostics on stderr")

	cmd.AddCommand(NewFreqCommand(opts))
	cmd.AddCommand(NewSysinfoCommand(opts))
	cmd.AddCommand(NewInsnCommand(opts))
	cmd.AddCommand(NewSelftestCommand(opts))

	cmd.SetArgs(args)

	return cmd
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)

	var served *servedError
	if err != nil && !errors.As(err, &served) {
		fmt.Fprintf(stderr, "insnbench: %v\n", err)
	}

	return GetExitCode(err)
}

// setup resolves the configuration, builds the harness, serves a probe child
// and writes the report header.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(cmd.ErrOrStderr(), "insnbench: ", 0)
	}

	h, err := harness.New(cfg, cmd.OutOrStdout(), harness.WithLogger(logger), harness.WithTrapArgs(o.args))
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	if code, served := h.ServeProbe(); served {
		return &servedError{code: code}
	}

	o.h = h

	if err := h.Init(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	return nil
}

// resolve layers the config file and the explicitly set flags over the
// defaults.
func (o *RootOptions) resolve(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if o.Config != "" {
		var err error

		cfg, err = config.Load(o.Config)
		if err != nil {
			return cfg, WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}

	flags := cmd.Flags()

	if flags.Changed("core") {
		cfg.Core = o.Core
	}
	if flags.Changed("trials") {
		cfg.Trials = o.Trials
	}
	if flags.Changed("warmup") {
		cfg.Warmup = o.Warmup
	}
	if flags.Changed("repetitions") {
		cfg.Repetitions = o.Repetitions
	}
	if flags.Changed("coefficient") {
		cfg.Coefficient = o.Coefficient
	}
	if flags.Changed("no-isolate") {
		cfg.Isolate = !o.NoIsolate
	}
	if flags.Changed("insn") {
		cfg.Instructions = o.Instructions
	}
	if flags.Changed("verbose") {
		cfg.Verbose = o.Verbose
	}

	for _, name := range cfg.Instructions {
		if _, err := bench.Lookup(name); err != nil {
			return cfg, WrapExitError(ExitCommandError, "invalid instruction selection", err)
		}
	}

	switch o.Format {
	case "markdown":
		cfg.Markdown = true
	case "text":
		cfg.Markdown = false
	default:
		if o.Config == "" || flags.Changed("format") {
			cfg.Markdown = !isTerminal(cmd.OutOrStdout())
		}
	}

	return cfg, nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
