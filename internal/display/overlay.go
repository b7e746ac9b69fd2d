package display

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/emacsmirror/easky/internal/stream"
)

// Overlay is the transient presentation. It appears on the first flush of a
// session, carries a tip on that first display only, and once the session
// has finished it stays up until focus moves away from it.
type Overlay struct {
	mu sync.Mutex

	// GotoEnd keeps the scroll position at the end of the content.
	GotoEnd bool
	// ShowTip attaches a tip to the first display of each session.
	ShowTip bool

	rng *rand.Rand

	visible      bool
	displayed    bool
	tip          string
	content      stream.Document
	lines        int
	status       string
	dismissArmed bool
	scroll       int
	height       int
	teardowns    int
}

// NewOverlay creates an overlay. A zero seed seeds from the clock.
func NewOverlay(seed int64) *Overlay {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Overlay{
		ShowTip: true,
		rng:     rand.New(rand.NewSource(seed)),
		height:  10,
	}
}

// Reset implements Sink.
func (o *Overlay) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.visible = false
	o.displayed = false
	o.tip = ""
	o.content = stream.Document{}
	o.lines = 0
	o.status = ""
	o.dismissArmed = false
	o.scroll = 0
}

// Show implements stream.Renderer.
func (o *Overlay) Show(doc stream.Document) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.visible = true
	if !o.displayed {
		o.displayed = true
		if o.ShowTip {
			o.tip = pickTip(o.rng)
		}
	} else {
		o.tip = ""
	}
	o.content = doc
	o.lines = countLines(doc.Plain())
	if o.GotoEnd {
		o.scroll = o.maxScroll()
	} else {
		o.clampScroll()
	}
}

// Finish implements Sink and arms the dismiss-on-focus-change hook.
func (o *Overlay) Finish(status string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status = status
	o.visible = true
	o.dismissArmed = true
	if o.GotoEnd {
		o.scroll = o.maxScroll()
	}
}

// Teardown implements Sink.
func (o *Overlay) Teardown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.teardown()
}

func (o *Overlay) teardown() {
	o.visible = false
	o.dismissArmed = false
	o.tip = ""
	o.teardowns++
}

// FocusChanged reports a user action that moved focus away from the
// overlay. It tears the overlay down when the session has finished and
// returns whether it did.
func (o *Overlay) FocusChanged() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.dismissArmed {
		return false
	}
	o.teardown()
	return true
}

// Scroll moves the view by delta lines. Scrolling never dismisses.
func (o *Overlay) Scroll(delta int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.scroll += delta
	o.clampScroll()
}

// SetHeight sets the number of visible content lines.
func (o *Overlay) SetHeight(h int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if h < 1 {
		h = 1
	}
	o.height = h
	if o.GotoEnd {
		o.scroll = o.maxScroll()
	} else {
		o.clampScroll()
	}
}

// Content implements Sink.
func (o *Overlay) Content() stream.Document {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.content
}

// Status implements Sink.
func (o *Overlay) Status() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Visible reports whether the overlay is up.
func (o *Overlay) Visible() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.visible
}

// Tip returns the tip attached to the current display, if any.
func (o *Overlay) Tip() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tip
}

// DismissArmed reports whether the next focus change tears the overlay down.
func (o *Overlay) DismissArmed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dismissArmed
}

// ScrollOffset returns the index of the first visible line.
func (o *Overlay) ScrollOffset() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scroll
}

// Teardowns counts how many times the overlay has been torn down.
func (o *Overlay) Teardowns() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.teardowns
}

func (o *Overlay) maxScroll() int {
	if o.lines <= o.height {
		return 0
	}
	return o.lines - o.height
}

func (o *Overlay) clampScroll() {
	if o.scroll > o.maxScroll() {
		o.scroll = o.maxScroll()
	}
	if o.scroll < 0 {
		o.scroll = 0
	}
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
