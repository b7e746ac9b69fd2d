package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Diagnostic is one message produced while loading a descriptor.
type Diagnostic struct {
	Level   slog.Level
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%s (line %d)", d.Message, d.Line)
	}
	return d.Message
}

// Diagnostics receives load diagnostics. Callers that want a silent load
// pass Discard or a Capture.
type Diagnostics interface {
	Report(Diagnostic)
}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Discard drops every diagnostic.
var Discard Diagnostics = discard{}

// Capture collects diagnostics in memory.
type Capture struct {
	mu      sync.Mutex
	entries []Diagnostic
}

// Report implements Diagnostics.
func (c *Capture) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, d)
}

// Entries returns a copy of the collected diagnostics.
func (c *Capture) Entries() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.entries...)
}

// LogDiagnostics forwards diagnostics to a structured logger.
type LogDiagnostics struct {
	Logger *slog.Logger
	Path   string
}

// Report implements Diagnostics.
func (l LogDiagnostics) Report(d Diagnostic) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), d.Level, d.Message, "path", l.Path, "line", d.Line)
}
