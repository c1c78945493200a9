// Package main is the entry point for the provost CLI.
//
// provost is a command-line tool for sequenced, idempotent multi-node
// provisioning: it reads a declarative inventory and plan, executes role
// pipelines with dependency gating and reboot-then-wait handling, and
// reports the outcome per pipeline and target.
//
// Commands: init, run, validate, version, completion.
//
// For detailed usage information, run:
//
//	provost --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/provost-dev/provost/cmd/provost/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// First signal cancels the run context so in-progress polls abort and
	// outstanding pipelines terminate as cancelled; a second signal kills
	// the process the usual way.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
