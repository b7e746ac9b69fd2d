package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingRenderer struct {
	shown []string
}

func (r *recordingRenderer) Show(doc Document) {
	r.shown = append(r.shown, doc.Plain())
}

func TestProcessor_TwoChunkScenario(t *testing.T) {
	r := &recordingRenderer{}
	p := NewProcessor(r, true)

	p.Write([]byte("Loading Eask file\n"))
	p.Flush()
	p.Write([]byte("Result: OK\n"))
	p.Flush()

	assert.Equal(t, []string{"Loading Eask file", "Result: OK"}, r.shown)
}

func TestProcessor_DecodesOnlyNewRange(t *testing.T) {
	p := NewProcessor(nil, false)

	p.Write([]byte("\x1b[31mred"))
	assert.Equal(t, 8, p.Buffer().Decoded())
	first := p.Buffer().Document()

	p.Write([]byte(" still red\x1b[0m"))
	assert.Equal(t, p.Buffer().Len(), p.Buffer().Decoded())
	doc := p.Buffer().Document()
	assert.Equal(t, first.Spans[0].Style, doc.Spans[0].Style)
	assert.Equal(t, "red still red", doc.Plain())
	assert.Equal(t, "\x1b[31mred still red\x1b[0m", string(p.Buffer().Raw()))
}

func TestProcessor_FlushWithoutRenderer(t *testing.T) {
	p := NewProcessor(nil, true)
	n, err := p.Write([]byte("x"))
	assert.NoError(t, err)
	assert.Equal(t, 1, n)
	p.Flush()
	assert.Equal(t, "x", p.Text().Plain())
}

func TestBuffer_Reset(t *testing.T) {
	var b Buffer
	b.Append([]byte("\x1b[1mbold"))
	b.Reset()
	assert.Zero(t, b.Len())
	assert.Zero(t, b.Decoded())
	b.Append([]byte("plain"))
	assert.Equal(t, []Span{{Text: "plain"}}, b.Document().Spans)
}
