package display

import (
	"io"
	"strings"
	"sync"

	"github.com/emacsmirror/easky/internal/stream"
)

// Surface is the persistent presentation: a read-only area whose content
// is cleared at the start of each session and replaced wholesale on every
// flush, so no formatting from an earlier run survives. It keeps no undo
// history.
type Surface struct {
	mu       sync.Mutex
	doc      stream.Document
	status   string
	revision int

	follow  io.Writer
	printed string
}

// NewSurface creates a surface. When follow is non-nil, text appended to
// the surface is also written to it as it arrives.
func NewSurface(follow io.Writer) *Surface {
	return &Surface{follow: follow}
}

// Reset implements Sink.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = stream.Document{}
	s.status = ""
	s.printed = ""
	s.revision++
}

// Show implements stream.Renderer.
func (s *Surface) Show(doc stream.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.revision++

	if s.follow == nil {
		return
	}
	plain := doc.Plain()
	switch {
	case strings.HasPrefix(plain, s.printed):
		io.WriteString(s.follow, plain[len(s.printed):])
	default:
		// The displayed text was rewritten, e.g. once the preamble marker
		// arrived. Printed text cannot be taken back, so start over below.
		io.WriteString(s.follow, "\n"+plain)
	}
	s.printed = plain
}

// Finish implements Sink.
func (s *Surface) Finish(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	if s.follow != nil && s.printed != "" {
		io.WriteString(s.follow, "\n")
		s.printed = ""
	}
}

// Teardown implements Sink. The surface outlives sessions, so there is
// nothing to release.
func (s *Surface) Teardown() {}

// Content implements Sink.
func (s *Surface) Content() stream.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Status implements Sink.
func (s *Surface) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Revision increments on every change of content.
func (s *Surface) Revision() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// ReadOnly reports that the surface does not accept user edits.
func (s *Surface) ReadOnly() bool { return true }
