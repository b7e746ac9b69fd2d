package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/emacsmirror/easky/internal/stream"
)

// RenderDocument renders decoded output with lipgloss, one style per span.
func RenderDocument(doc stream.Document) string {
	var b strings.Builder
	for _, span := range doc.Spans {
		if span.Style.IsZero() {
			b.WriteString(span.Text)
			continue
		}
		style := spanStyle(span.Style)
		// Render line by line so borders and padding of the enclosing
		// pane are not disturbed by multi-line spans.
		lines := strings.Split(span.Text, "\n")
		for i, line := range lines {
			if i > 0 {
				b.WriteByte('\n')
			}
			if line != "" {
				b.WriteString(style.Render(line))
			}
		}
	}
	return b.String()
}

func spanStyle(s stream.Style) lipgloss.Style {
	style := lipgloss.NewStyle().
		Bold(s.Bold).
		Faint(s.Faint).
		Italic(s.Italic).
		Underline(s.Underline).
		Reverse(s.Reverse)
	if s.Fg != "" {
		style = style.Foreground(lipgloss.Color(s.Fg))
	}
	if s.Bg != "" {
		style = style.Background(lipgloss.Color(s.Bg))
	}
	return style
}
