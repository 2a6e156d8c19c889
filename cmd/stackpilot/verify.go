package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/internal/report"
	"github.com/stackpilot/stackpilot/internal/verify"
)

var verifyCmdRunner = runVerify

func newVerifyCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Probe an already-running stack and report its health",
		Long: `Verify probes every expected container, port, health endpoint, and the
database of a stack that is already running, without starting or stopping
anything. Exit code 0 means the stack is usable, 1 means it is not.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return verifyCmdRunner(root)
		},
	}
}

func runVerify(root *rootFlags) error {
	app, err := newAppContext(root.configPath, root.verbose, root.jsonOutput)
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error loading stack definition: %v\n", err)
		exitFunc(2)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	verifier := verify.New(app.cfg, app.docker, app.sys, app.log)
	summary := report.Aggregate(verifier.Verify(ctx))
	printSummary(summary, app.cfg.Endpoints, root.jsonOutput)

	exitFunc(summary.ExitCode())
	return nil
}
