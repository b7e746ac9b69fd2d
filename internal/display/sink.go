// Package display holds the two presentation targets for session output: a
// transient overlay and a persistent read-only surface. Both are plain state
// holders; the TUI renders them and the session supervisor drives them.
package display

import (
	"fmt"

	"github.com/emacsmirror/easky/internal/stream"
)

// Mode names accepted by New.
const (
	ModeOverlay = "overlay"
	ModeSurface = "surface"
)

// Sink is a presentation target reused across sessions.
type Sink interface {
	stream.Renderer

	// Reset empties the sink at the start of a session.
	Reset()
	// Finish records the terminal status of the session.
	Finish(status string)
	// Teardown releases anything bound to the current session.
	Teardown()
	// Content returns the text currently presented.
	Content() stream.Document
	// Status returns the last terminal status, if any.
	Status() string
}

// Options configures a sink created by New.
type Options struct {
	GotoEnd bool
	ShowTip bool
	Seed    int64
}

// New creates the sink for mode.
func New(mode string, opts Options) (Sink, error) {
	switch mode {
	case ModeOverlay, "":
		o := NewOverlay(opts.Seed)
		o.GotoEnd = opts.GotoEnd
		o.ShowTip = opts.ShowTip
		return o, nil
	case ModeSurface:
		return NewSurface(nil), nil
	default:
		return nil, fmt.Errorf("unknown display mode %q", mode)
	}
}
