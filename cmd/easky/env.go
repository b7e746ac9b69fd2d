package main

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/emacsmirror/easky/internal/command"
	"github.com/emacsmirror/easky/internal/config"
	"github.com/emacsmirror/easky/internal/display"
	"github.com/emacsmirror/easky/internal/session"
	"github.com/emacsmirror/easky/internal/workspace"
)

// environment is what every operation needs once its preconditions hold.
type environment struct {
	cfg        *config.Config
	ws         workspace.Workspace
	descriptor *workspace.Descriptor
	warnings   []workspace.Diagnostic
	sandbox    workspace.Sandbox
	registry   *command.Registry
}

// prepare checks the preconditions and silently loads the descriptor.
// Precondition failures are returned as is; a descriptor that fails to load
// is returned as a *workspace.ConfigLoadError together with the environment
// so interactive callers can keep going.
func prepare(cfg *config.Config) (*environment, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Check(cfg.Executable, wd)
	if err != nil {
		return nil, err
	}

	env := &environment{
		cfg:      cfg,
		ws:       ws,
		sandbox:  workspace.Sandbox{Env: cfg.SandboxEnv, Dir: ws.Root},
		registry: command.DefaultRegistry(),
	}

	capture := &workspace.Capture{}
	desc, err := workspace.LoadDescriptor(ws.Descriptor, capture)
	env.warnings = capture.Entries()
	if err != nil {
		slog.Warn("descriptor failed to load", "path", ws.Descriptor, "error", err)
		return env, err
	}
	env.descriptor = desc
	return env, nil
}

// supervisor creates the session supervisor writing to sink.
func (e *environment) supervisor(sink display.Sink) *session.Supervisor {
	return session.NewSupervisor(session.Options{
		Sink:        sink,
		Timeout:     e.cfg.Timeout,
		StripHeader: e.cfg.StripHeader,
		ExtraEnv:    e.cfg.ColorEnviron(),
		Logger:      slog.Default().With("component", "supervisor"),
	})
}

// request builds a command request for path.
func (e *environment) request(path []string, args []*string) command.Request {
	return command.Request{
		Path:       path,
		Args:       args,
		Executable: e.cfg.Executable,
		Extra:      e.cfg.GlobalFlags,
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
