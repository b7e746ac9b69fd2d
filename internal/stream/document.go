// Package stream turns raw child process output into presentable text.
//
// Raw bytes are accumulated in a Buffer whose SGR escape sequences are
// decoded incrementally into a styled Document. On every flush the
// Processor derives the displayed text from the whole Document, optionally
// stripping the Eask preamble, and hands it to a Renderer.
package stream

import "strings"

// Style is the display attribute set decoded from SGR sequences. Colors use
// lipgloss notation: "" for the terminal default, "0".."255" for indexed
// colors and "#rrggbb" for true color.
type Style struct {
	Fg        string
	Bg        string
	Bold      bool
	Faint     bool
	Italic    bool
	Underline bool
	Reverse   bool
}

// IsZero reports whether s carries no attributes.
func (s Style) IsZero() bool { return s == Style{} }

// Span is a run of text sharing one style.
type Span struct {
	Text  string
	Style Style
}

// Document is decoded output as a sequence of styled spans.
type Document struct {
	Spans []Span
}

// Plain returns the document text without styling.
func (d Document) Plain() string {
	var b strings.Builder
	for _, s := range d.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Len returns the length of the plain text in bytes.
func (d Document) Len() int {
	n := 0
	for _, s := range d.Spans {
		n += len(s.Text)
	}
	return n
}

// IsEmpty reports whether the document has no text.
func (d Document) IsEmpty() bool { return d.Len() == 0 }

// Slice returns the part of the document between plain-text byte offsets
// start and end.
func (d Document) Slice(start, end int) Document {
	if start < 0 {
		start = 0
	}
	if end > d.Len() {
		end = d.Len()
	}
	if start >= end {
		return Document{}
	}

	var out Document
	pos := 0
	for _, s := range d.Spans {
		sStart, sEnd := pos, pos+len(s.Text)
		pos = sEnd
		if sEnd <= start || sStart >= end {
			continue
		}
		lo, hi := max(start, sStart)-sStart, min(end, sEnd)-sStart
		out.Spans = append(out.Spans, Span{Text: s.Text[lo:hi], Style: s.Style})
	}
	return out
}

// append adds text with style, merging into the last span when the style
// is unchanged.
func (d *Document) append(text string, style Style) {
	if text == "" {
		return
	}
	if n := len(d.Spans); n > 0 && d.Spans[n-1].Style == style {
		d.Spans[n-1].Text += text
		return
	}
	d.Spans = append(d.Spans, Span{Text: text, Style: style})
}

// Text builds an unstyled document.
func Text(s string) Document {
	var d Document
	d.append(s, Style{})
	return d
}
