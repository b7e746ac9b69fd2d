package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/emacsmirror/easky/internal/workspace"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the workspace and its Eask file",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := prepare(cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "root:       %s\n", env.ws.Root)
		fmt.Fprintf(out, "eask file:  %s\n", env.ws.Descriptor)
		fmt.Fprintf(out, "executable: %s\n\n", env.ws.Executable)
		fmt.Fprintln(out, env.descriptor.Summary())
		printWarnings(cmd, env.warnings)
		return nil
	},
}

func printWarnings(cmd *cobra.Command, diags []workspace.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d: %s\n", d.Level, d.Line, d.Message)
	}
}
