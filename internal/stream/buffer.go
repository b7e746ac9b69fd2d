package stream

// Buffer accumulates raw output and its decoded form. The decoded cursor
// marks how much of the raw bytes has already been decoded, so each append
// only decodes the newly added range.
type Buffer struct {
	raw     []byte
	decoded int
	doc     Document
	dec     Decoder
}

// Append adds chunk to the raw bytes and decodes the new range.
func (b *Buffer) Append(chunk []byte) {
	b.raw = append(b.raw, chunk...)
	b.dec.Decode(&b.doc, b.raw[b.decoded:])
	b.decoded = len(b.raw)
}

// Raw returns the accumulated raw bytes.
func (b *Buffer) Raw() []byte { return b.raw }

// Decoded returns the decoded cursor position in the raw bytes.
func (b *Buffer) Decoded() int { return b.decoded }

// Document returns the decoded output.
func (b *Buffer) Document() Document { return b.doc }

// Len returns the number of raw bytes.
func (b *Buffer) Len() int { return len(b.raw) }

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.raw = nil
	b.decoded = 0
	b.doc = Document{}
	b.dec.Reset()
}
