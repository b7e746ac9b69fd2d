package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/helpmenu"
	"github.com/emacsmirror/easky/internal/realtime"
	"github.com/emacsmirror/easky/internal/ui"
	"github.com/emacsmirror/easky/internal/workspace"
)

func runInteractive(cmd *cobra.Command) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("interactive mode needs a terminal; use `easky run` instead")
	}

	env, err := prepare(cfg)
	var loadErr *workspace.ConfigLoadError
	banner := ""
	switch {
	case errors.As(err, &loadErr):
		// The menu stays usable; the banner explains the broken descriptor.
		banner = loadErr.Banner()
	case err != nil:
		return err
	}

	return env.sandbox.Scope(func() error {
		sink, err := display.New(env.cfg.Display, display.Options{
			GotoEnd: env.cfg.GotoEnd,
			ShowTip: env.cfg.ShowTip,
		})
		if err != nil {
			return err
		}
		sup := env.supervisor(sink)
		defer sup.Shutdown()

		cache := helpmenu.NewCache(helpmenu.ShellRunner{})
		app := ui.NewApp(ui.Options{
			Registry:    env.registry,
			Supervisor:  sup,
			Help:        cache,
			Executable:  env.cfg.Executable,
			GlobalFlags: env.cfg.GlobalFlags,
			Banner:      banner,
		})
		p := ui.NewProgram(app)

		watcher, err := workspace.NewWatcher(env.ws.Root, func(path string) {
			cache.Invalidate()
			desc, err := workspace.LoadDescriptor(path, workspace.LogDiagnostics{Path: path})
			p.Send(ui.DescriptorMsg{Descriptor: desc, Err: err})
		}, slog.Default())
		if err != nil {
			slog.Warn("descriptor watcher disabled", "error", err)
		} else {
			defer watcher.Close()
		}

		if env.cfg.MirrorAddr != "" {
			srv := &http.Server{
				Addr: env.cfg.MirrorAddr,
				Handler: realtime.New(sup, realtime.Options{
					Registry:    env.registry,
					Executable:  env.cfg.Executable,
					GlobalFlags: env.cfg.GlobalFlags,
				}).Handler(),
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("mirror server error", "addr", env.cfg.MirrorAddr, "error", err)
				}
			}()
			defer srv.Close()
		}

		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run interactive ui: %w", err)
		}
		return nil
	})
}
