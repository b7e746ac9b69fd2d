package workspace

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// node is one parsed Emacs Lisp form.
type node struct {
	atom   string
	str    bool
	list   []node
	isList bool
	line   int
}

func (n node) head() string {
	if !n.isList || len(n.list) == 0 || n.list[0].isList || n.list[0].str {
		return ""
	}
	return n.list[0].atom
}

// text returns the value of a string or symbol atom.
func (n node) text() (string, bool) {
	if n.isList {
		return "", false
	}
	return n.atom, true
}

func (n node) String() string {
	if n.str {
		return fmt.Sprintf("%q", n.atom)
	}
	if !n.isList {
		return n.atom
	}
	parts := make([]string, len(n.list))
	for i, c := range n.list {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// SyntaxError is a malformed form in a descriptor.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

type reader struct {
	src  string
	pos  int
	line int
}

// readForms parses every top-level form in src.
func readForms(src string) ([]node, error) {
	r := &reader{src: src, line: 1}
	var forms []node
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return forms, nil
		}
		n, err := r.read()
		if err != nil {
			return forms, err
		}
		forms = append(forms, n)
	}
}

func (r *reader) errorf(format string, args ...any) error {
	return &SyntaxError{Line: r.line, Msg: fmt.Sprintf(format, args...)}
}

func (r *reader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == '\n':
			r.line++
			r.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f':
			r.pos++
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

func (r *reader) read() (node, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return node{}, r.errorf("unexpected end of file")
	}
	line := r.line
	switch c := r.src[r.pos]; c {
	case '(':
		r.pos++
		n := node{isList: true, line: line}
		for {
			r.skipSpace()
			if r.pos >= len(r.src) {
				return node{}, &SyntaxError{Line: line, Msg: "unbalanced parenthesis"}
			}
			if r.src[r.pos] == ')' {
				r.pos++
				return n, nil
			}
			child, err := r.read()
			if err != nil {
				return node{}, err
			}
			n.list = append(n.list, child)
		}
	case ')':
		return node{}, r.errorf("unexpected )")
	case '\'', '`', '#':
		r.pos++
		if c == '#' {
			if r.pos >= len(r.src) || r.src[r.pos] != '\'' {
				return node{}, r.errorf("unsupported reader syntax #")
			}
			r.pos++
		}
		return r.read()
	case '"':
		return r.readString()
	default:
		return r.readSymbol(), nil
	}
}

func (r *reader) readString() (node, error) {
	line := r.line
	r.pos++
	var b strings.Builder
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch c {
		case '"':
			r.pos++
			return node{atom: b.String(), str: true, line: line}, nil
		case '\\':
			r.pos++
			if r.pos >= len(r.src) {
				break
			}
			switch e := r.src[r.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\n':
				r.line++
			default:
				b.WriteByte(e)
			}
			r.pos++
		default:
			if c == '\n' {
				r.line++
			}
			_, size := utf8.DecodeRuneInString(r.src[r.pos:])
			b.WriteString(r.src[r.pos : r.pos+size])
			r.pos += size
		}
	}
	return node{}, &SyntaxError{Line: line, Msg: "unterminated string"}
}

func (r *reader) readSymbol() node {
	start, line := r.pos, r.line
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c == '(' || c == ')' || c == '"' || c == ';' || c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			break
		}
		r.pos++
	}
	return node{atom: r.src[start:r.pos], line: line}
}
