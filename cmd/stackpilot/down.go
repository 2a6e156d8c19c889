package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type downOptions struct {
	root    *rootFlags
	volumes bool
}

var downCmdRunner = runDown

func newDownCmd(root *rootFlags) *cobra.Command {
	opts := &downOptions{root: root}

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the stack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return downCmdRunner(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.volumes, "volumes", false, "Also remove named volumes (destroys database state)")

	return cmd
}

func runDown(opts *downOptions) error {
	app, err := newAppContext(opts.root.configPath, opts.root.verbose, opts.root.jsonOutput)
	if err != nil {
		fmt.Fprintf(stderrWriter, "Error loading stack definition: %v\n", err)
		exitFunc(2)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := app.docker.Down(ctx, opts.volumes); err != nil {
		fmt.Fprintf(stderrWriter, "Error stopping the stack: %v\n", err)
		exitFunc(1)
		return nil
	}

	fmt.Fprintln(stdoutWriter, "Stack stopped.")
	exitFunc(0)
	return nil
}
