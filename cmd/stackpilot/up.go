package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/internal/launch"
	"github.com/stackpilot/stackpilot/internal/prereq"
	"github.com/stackpilot/stackpilot/internal/report"
	"github.com/stackpilot/stackpilot/internal/verify"
	pilotErrors "github.com/stackpilot/stackpilot/pkg/errors"
)

type upOptions struct {
	root    *rootFlags
	build   bool
	clean   bool
	profile string
}

var upCmdRunner = runUp

func newUpCmd(root *rootFlags) *cobra.Command {
	opts := &upOptions{root: root}

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the stack and verify its health",
		Long: `Up validates host prerequisites, starts the stack with compose, waits for
services to settle, and then probes every expected container, port, health
endpoint, and the database. Exit code 0 means the stack is usable (warnings
may remain), 1 means it is not, 2 means the stack definition is invalid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return upCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.build, "build", false, "Rebuild all images without cache before starting")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "Tear down containers, volumes, and runtime state before starting")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "Named environment profile to apply")

	return cmd
}

func runUp(opts *upOptions) error {
	app, err := newAppContext(opts.root.configPath, opts.root.verbose, opts.root.jsonOutput)
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error loading stack definition: %v\n", err)
		exitFunc(2)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	validator := prereq.New(app.cfg, app.docker, app.sys, app.run, app.log)
	launcher := launch.New(app.cfg, app.docker, validator, app.log)

	reports, launchErr := launcher.Launch(ctx, launch.Options{
		Build:   opts.build,
		Clean:   opts.clean,
		Profile: opts.profile,
	})
	if launchErr != nil && !errors.Is(launchErr, launch.ErrBlocked) {
		var validationErr *pilotErrors.ValidationError
		if errors.As(launchErr, &validationErr) {
			fmt.Fprintf(stderrWriter, "Configuration error: %v\n", launchErr)
			exitFunc(2)
			return nil
		}
		fmt.Fprintf(stderrWriter, "Launch error: %v\n", launchErr)
	}

	if launchErr == nil {
		verifier := verify.New(app.cfg, app.docker, app.sys, app.log)
		reports = append(reports, verifier.Verify(ctx))
	}

	summary := report.Aggregate(reports...)
	printSummary(summary, app.cfg.Endpoints, opts.root.jsonOutput)

	code := summary.ExitCode()
	if launchErr != nil && code == 0 {
		code = 1
	}
	exitFunc(code)
	return nil
}
