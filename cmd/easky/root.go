package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/emacsmirror/easky/internal/config"
	"github.com/emacsmirror/easky/internal/workspace"
)

var exit = os.Exit

var (
	cfgFile  string
	cfg      *config.Config
	closeLog = func() {}
)

// exitCodeError ends the process with code without printing anything.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var rootCmd = &cobra.Command{
	Use:   "easky",
	Short: "Interactive controller for the Eask CLI",
	Long: `easky drives the Eask CLI for Emacs Lisp projects. Run it without
arguments for an interactive menu built from eask's own help output, or use
the subcommands to run, inspect and mirror eask sessions.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd)
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "easky: internal error: %v\n", r)
			exit(1)
		}
	}()

	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		exit(report(err))
	}
}

// report prints err with guidance and returns the exit code.
func report(err error) int {
	var codeErr exitCodeError
	var loadErr *workspace.ConfigLoadError
	switch {
	case errors.As(err, &codeErr):
		return codeErr.code
	case errors.Is(err, workspace.ErrExecutableNotFound):
		fmt.Fprintf(os.Stderr, "easky: %v\n", err)
	case errors.Is(err, workspace.ErrInvalidWorkspace):
		fmt.Fprintf(os.Stderr, "easky: %v\nCreate one with `eask init` or run easky inside a project.\n", err)
	case errors.As(err, &loadErr):
		fmt.Fprintln(os.Stderr, loadErr.Banner())
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'easky --help' for usage.")
	}
	return 1
}

func init() {
	// Assigned here rather than in the literal: initLogger refers to
	// rootCmd, which would otherwise form an initialization cycle.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		closeLog = initLogger(cmd, cfg)
		return nil
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./.easky.yaml or $HOME/.easky.yaml)")
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.String("executable", "", "eask executable (overrides config and EASKY_EXECUTABLE)")
	flags.Duration("timeout", 0, "kill eask sessions running longer than this")
	flags.String("display", "", "output display: overlay or surface")
	flags.String("color", "", "color output from eask: auto, always or never")

	bindFlags(flags, "verbose", "executable", "timeout", "display", "color")

	rootCmd.AddCommand(runCmd, menuCmd, infoCmd, serveCmd)
}

// bindFlags binds each named flag to the config key of the same name.
func bindFlags(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}
