// Command insnbench reports the clock frequency and the latency and
// throughput of individual instructions in CPU cycles.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cwbudde/insn-bench/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	os.Exit(code)
}
