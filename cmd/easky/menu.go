package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emacsmirror/easky/internal/command"
	"github.com/emacsmirror/easky/internal/helpmenu"
)

var menuCmd = &cobra.Command{
	Use:   "menu [group...]",
	Short: "List the subcommands Eask offers",
	Long: `Menu runs the Eask help for the given command group and lists the
subcommands it reports. Without a group the top-level commands are listed.`,
	Example: `  easky menu
  easky menu lint`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := helpmenu.Fetch(cmd.Context(), helpmenu.ShellRunner{},
			command.HelpLine(cfg.Executable, args...), len(args)+1)
		if err != nil {
			return err
		}
		printOptions(cmd.OutOrStdout(), opts)
		return nil
	},
}

func printOptions(out io.Writer, opts []helpmenu.Option) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COMMAND\tDESCRIPTION")
	fmt.Fprintln(w, "-------\t-----------")
	for _, opt := range opts {
		fmt.Fprintf(w, "%s\t%s\n", opt.ID, strings.TrimSpace(opt.Description))
	}
	w.Flush()
}
