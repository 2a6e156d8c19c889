package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/internal/prereq"
	"github.com/stackpilot/stackpilot/internal/report"
)

var checkCmdRunner = runCheck

func newCheckCmd(root *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate host prerequisites without touching the stack",
		Long: `Check runs the same prerequisite validation that gates 'up' — container
runtime, compose tooling, shell version, port availability, disk, and
memory — and reports the findings without starting anything.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkCmdRunner(root)
		},
	}
}

func runCheck(root *rootFlags) error {
	app, err := newAppContext(root.configPath, root.verbose, root.jsonOutput)
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error loading stack definition: %v\n", err)
		exitFunc(2)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	validator := prereq.New(app.cfg, app.docker, app.sys, app.run, app.log)
	summary := report.Aggregate(validator.Validate(ctx))
	printSummary(summary, nil, root.jsonOutput)

	exitFunc(summary.ExitCode())
	return nil
}
