package main

import (
	"github.com/spf13/cobra"

	"github.com/stackpilot/stackpilot/internal/config"
)

type rootFlags struct {
	verbose    bool
	jsonOutput bool
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "stackpilot",
		Short:         "Stackpilot brings up a local service stack and verifies its health",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Output the report in JSON format")
	cmd.PersistentFlags().StringVar(&flags.configPath, "config", config.DefaultPath, "Path to the stack definition file")

	cmd.AddCommand(newUpCmd(flags))
	cmd.AddCommand(newDownCmd(flags))
	cmd.AddCommand(newCheckCmd(flags))
	cmd.AddCommand(newVerifyCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
