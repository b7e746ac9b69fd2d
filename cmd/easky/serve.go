package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/realtime"
	"github.com/emacsmirror/easky/internal/workspace"
)

const defaultMirrorAddr = "127.0.0.1:8420"

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run eask sessions headless behind the mirror server",
	Long: `Serve keeps a session supervisor running without a terminal UI and
exposes it over HTTP and WebSocket. Sessions are started with POST /session
or a session.start message, and their output is streamed to every client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := prepare(cfg)
		if err != nil {
			return err
		}
		printWarnings(cmd, env.warnings)

		addr := serveAddr
		if addr == "" {
			addr = env.cfg.MirrorAddr
		}
		if addr == "" {
			addr = defaultMirrorAddr
		}

		return env.sandbox.Scope(func() error {
			sup := env.supervisor(display.NewSurface(nil))
			rtServer := realtime.New(sup, realtime.Options{
				Registry:    env.registry,
				Executable:  env.cfg.Executable,
				GlobalFlags: env.cfg.GlobalFlags,
				Logger:      slog.Default().With("component", "realtime"),
			})

			watcher, err := workspace.NewWatcher(env.ws.Root, func(path string) {
				if _, err := workspace.LoadDescriptor(path, workspace.LogDiagnostics{Path: path}); err != nil {
					slog.Warn("descriptor reload failed", "path", path, "error", err)
					return
				}
				slog.Info("descriptor reloaded", "path", path)
			}, slog.Default())
			if err != nil {
				slog.Warn("descriptor watcher disabled", "error", err)
			}

			httpServer := &http.Server{
				Addr:    addr,
				Handler: rtServer.Handler(),
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			go func() {
				<-sigCh
				slog.Info("shutting down")
				if watcher != nil {
					watcher.Close()
				}
				sup.Shutdown()
				httpServer.Close()
			}()

			slog.Info("mirror server running", "addr", "http://"+addr, "root", env.ws.Root)
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default mirror_addr or "+defaultMirrorAddr+")")
}
