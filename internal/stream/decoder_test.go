package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func decodeAll(chunks ...string) Document {
	var d Decoder
	var doc Document
	for _, c := range chunks {
		d.Decode(&doc, []byte(c))
	}
	return doc
}

func TestDecoder_PlainText(t *testing.T) {
	doc := decodeAll("hello\nworld\n")
	assert.Equal(t, "hello\nworld\n", doc.Plain())
	assert.Len(t, doc.Spans, 1)
}

func TestDecoder_SGRColors(t *testing.T) {
	doc := decodeAll("a\x1b[31mred\x1b[0mb\x1b[1;92mok\x1b[m")
	assert.Equal(t, "aredbok", doc.Plain())
	assert.Equal(t, []Span{
		{Text: "a"},
		{Text: "red", Style: Style{Fg: "1"}},
		{Text: "b"},
		{Text: "ok", Style: Style{Fg: "10", Bold: true}},
	}, doc.Spans)
}

func TestDecoder_ExtendedColors(t *testing.T) {
	doc := decodeAll("\x1b[38;5;208mx\x1b[48;2;255;0;16my\x1b[39;49mz")
	assert.Equal(t, []Span{
		{Text: "x", Style: Style{Fg: "208"}},
		{Text: "y", Style: Style{Fg: "208", Bg: "#ff0010"}},
		{Text: "z"},
	}, doc.Spans)
}

func TestDecoder_SequenceSplitAcrossChunks(t *testing.T) {
	whole := decodeAll("x\x1b[33myellow\x1b[0m")
	split := decodeAll("x\x1b", "[3", "3myel", "low\x1b[", "0m")
	assert.Equal(t, whole, split)
}

func TestDecoder_RuneSplitAcrossChunks(t *testing.T) {
	check := "✓"
	doc := decodeAll("done "+check[:1], check[1:2], check[2:]+"\n")
	assert.Equal(t, "done ✓\n", doc.Plain())
}

func TestDecoder_DropsOtherSequences(t *testing.T) {
	doc := decodeAll("a\x1b[2Kb\x1b]0;title\x07c\x1b]8;;x\x1b\\d\x1b(Be\r\n")
	assert.Equal(t, "abcde\n", doc.Plain())
}

func TestDecoder_AttributeToggles(t *testing.T) {
	var d Decoder
	var doc Document
	d.Decode(&doc, []byte("\x1b[1;3;4;7m"))
	assert.Equal(t, Style{Bold: true, Italic: true, Underline: true, Reverse: true}, d.Style())
	d.Decode(&doc, []byte("\x1b[22;23;24;27m"))
	assert.True(t, d.Style().IsZero())
}
