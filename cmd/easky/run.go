package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/emacsmirror/easky/internal/command"
	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/helpmenu"
	"github.com/emacsmirror/easky/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run <command...> [args...]",
	Short: "Run an Eask command once and stream its output",
	Long: `Run formats the Eask command line for the given subcommand path, runs it
under the watchdog, and streams its output to the terminal. When the path
names a command group, its subcommands are listed instead.`,
	Example: `  easky run compile
  easky run lint package foo.el
  easky run test ert "test/*.el"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := prepare(cfg)
		if err != nil {
			return err
		}
		path, rest := splitPath(env.registry, args)
		if len(path) == 0 {
			return fmt.Errorf("unknown command %q", strings.Join(args, " "))
		}
		return env.sandbox.Scope(func() error {
			return runOnce(cmd, env, path, command.Args(rest...))
		})
	},
}

// splitPath returns the longest registered prefix of args and the
// remaining arguments.
func splitPath(reg *command.Registry, args []string) ([]string, []string) {
	for n := len(args); n > 0; n-- {
		if reg.Has(strings.Join(args[:n], " ")) {
			return args[:n], args[n:]
		}
	}
	return nil, args
}

func runOnce(cmd *cobra.Command, env *environment, path []string, args []*string) error {
	action, err := env.registry.Resolve(env.request(path, args))
	if err != nil {
		return err
	}
	if action.Kind == command.ActionMenu {
		opts, err := helpmenu.Fetch(cmd.Context(), helpmenu.ShellRunner{}, action.HelpLine, action.TokenIndex)
		if err != nil {
			return err
		}
		printOptions(cmd.OutOrStdout(), opts)
		return nil
	}

	sup := env.supervisor(display.NewSurface(cmd.OutOrStdout()))
	defer sup.Shutdown()

	fmt.Fprintf(cmd.ErrOrStderr(), "$ %s\n", action.CommandLine)
	if _, err := sup.Start(action.CommandLine, session.ConfirmAlways); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				confirm := confirmStop
				if sig == syscall.SIGTERM || !isTerminal(os.Stdin) {
					confirm = session.ConfirmAlways
				}
				if _, err := sup.Stop(confirm); err != nil {
					slog.Error("stop session", "error", err)
				}
			}
		}
	}()

	sess, err := sup.Wait(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), sess.Message)
	return exitError(sess)
}

var askOne = survey.AskOne

// confirmStop asks on the terminal before killing the session.
func confirmStop(prompt string) bool {
	ok := false
	if err := askOne(&survey.Confirm{Message: prompt}, &ok); err != nil {
		// An interrupted prompt means the user insists.
		return errors.Is(err, terminal.InterruptErr)
	}
	return ok
}

// exitError maps a finished session to the process exit status.
func exitError(sess session.Session) error {
	switch sess.Status {
	case session.StatusTimedOut:
		return exitCodeError{code: 124}
	case session.StatusSignaled:
		return exitCodeError{code: 130}
	}
	if sess.ExitCode != 0 {
		return exitCodeError{code: sess.ExitCode}
	}
	return nil
}
