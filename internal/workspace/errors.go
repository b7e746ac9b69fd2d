package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Remediation is printed when the eask executable cannot be found.
const Remediation = "install it with: npm install -g @emacs-eask/cli"

var (
	// ErrExecutableNotFound means the eask executable is not on PATH.
	ErrExecutableNotFound = errors.New("eask executable not found")
	// ErrInvalidWorkspace means no Eask descriptor was found.
	ErrInvalidWorkspace = errors.New("not inside an Eask workspace")
)

// ConfigLoadError reports a failed silent load of an Eask descriptor. It
// carries every diagnostic produced during the load.
type ConfigLoadError struct {
	Path        string
	Diagnostics []Diagnostic
	Err         error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// Banner renders the error and its diagnostics as one message.
func (e *ConfigLoadError) Banner() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error loading Eask file %s", e.Path)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, d := range e.Diagnostics {
		b.WriteString("\n  ")
		if d.Level >= slog.LevelError {
			b.WriteString("error: ")
		} else {
			b.WriteString("warning: ")
		}
		b.WriteString(d.Message)
	}
	return b.String()
}
