package stream

// Renderer receives the text to display after every flush.
type Renderer interface {
	Show(doc Document)
}

// Processor feeds one session's output through a Buffer and renders the
// derived text.
type Processor struct {
	buf      Buffer
	renderer Renderer

	// StripHeader enables dropping the Eask preamble.
	StripHeader bool
}

// NewProcessor creates a processor rendering into r.
func NewProcessor(r Renderer, stripHeader bool) *Processor {
	return &Processor{renderer: r, StripHeader: stripHeader}
}

// Write appends a raw output chunk. It never fails.
func (p *Processor) Write(chunk []byte) (int, error) {
	p.buf.Append(chunk)
	return len(chunk), nil
}

// Flush derives the display text from the whole buffer and renders it.
func (p *Processor) Flush() {
	if p.renderer == nil {
		return
	}
	p.renderer.Show(p.Text())
}

// Text returns the current display text.
func (p *Processor) Text() Document {
	return Strip(p.buf.Document(), p.StripHeader)
}

// Buffer exposes the underlying output buffer.
func (p *Processor) Buffer() *Buffer { return &p.buf }
