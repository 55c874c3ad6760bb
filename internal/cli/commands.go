package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewFreqCommand creates the freq command.
func NewFreqCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "freq",
		Short: "Estimate the CPU clock frequency",
		Long: `Estimate the CPU clock frequency from the latency of a dependent 64-bit
add chain, assuming one add retires per cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runFreq(cmd.Context(), opts)
			return err
		},
	}
}

// NewSysinfoCommand creates the sysinfo command.
func NewSysinfoCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sysinfo",
		Short: "Dump the OS identification, processor information and CPU features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSysinfo(cmd.Context(), opts)
		},
	}
}

// NewInsnCommand creates the insn command.
func NewInsnCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insn",
		Short: "Measure instruction latency and throughput in cycles",
		Long: `Estimate the clock frequency, then time every selected instruction in a
dependency chain and in independent streams. Instructions the CPU rejects are
reported as unsupported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsn(cmd.Context(), opts)
		},
	}
}

// NewSelftestCommand creates the selftest command.
func NewSelftestCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Check that the fault trap survives an illegal instruction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelftest(cmd.Context(), opts)
		},
	}
}

func runSysinfo(ctx context.Context, opts *RootOptions) error {
	if err := opts.h.DumpUname(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if err := opts.h.DumpCPUInfo(ctx); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	if err := opts.h.DumpFeatures(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}

	return nil
}

func runFreq(ctx context.Context, opts *RootOptions) (float64, error) {
	hz, err := opts.h.EstimateFrequency(ctx, opts.h.Config().Trials)
	if err != nil {
		return 0, WrapExitError(ExitFailure, "frequency estimation failed", err)
	}

	return hz, nil
}

func runInsn(ctx context.Context, opts *RootOptions) error {
	hz, err := runFreq(ctx, opts)
	if err != nil {
		return err
	}

	if _, err := opts.h.MeasureInstructions(ctx, hz); err != nil {
		return WrapExitError(ExitFailure, "instruction measurement failed", err)
	}

	return nil
}

func runSelftest(ctx context.Context, opts *RootOptions) error {
	protected, err := opts.h.SelfTest(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "fault trap self-test failed", err)
	}

	if !protected {
		return NewExitError(ExitFailure, "fault trap self-test failed")
	}

	return nil
}

// runReport writes the full report: system information, the fault trap
// self-test, the clock estimate and the instruction table. A failed
// self-test is reported but does not stop the measurements.
func runReport(ctx context.Context, opts *RootOptions) error {
	if err := runSysinfo(ctx, opts); err != nil {
		return err
	}

	if _, err := opts.h.SelfTest(ctx); err != nil {
		return WrapExitError(ExitFailure, "fault trap self-test failed", err)
	}

	return runInsn(ctx, opts)
}
