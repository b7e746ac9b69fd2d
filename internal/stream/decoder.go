package stream

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type decoderState int

const (
	stateGround decoderState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateOSC
	stateOSCEscape
)

// Decoder converts raw terminal output into styled text. It keeps its state
// between calls so escape sequences and UTF-8 runes split across chunks
// are decoded correctly. SGR sequences update the current style; every
// other escape sequence and carriage returns are dropped.
type Decoder struct {
	state   decoderState
	style   Style
	params  []byte
	pending []byte // incomplete UTF-8 rune at the end of the last chunk
}

// Style returns the style that applies to the next decoded text.
func (d *Decoder) Style() Style { return d.style }

// Decode appends the text in chunk to doc.
func (d *Decoder) Decode(doc *Document, chunk []byte) {
	var text []byte
	if len(d.pending) > 0 {
		text = append(text, d.pending...)
		d.pending = d.pending[:0]
	}
	flush := func() {
		if len(text) > 0 {
			doc.append(string(text), d.style)
			text = text[:0]
		}
	}

	for _, b := range chunk {
		switch d.state {
		case stateGround:
			switch b {
			case 0x1b:
				flush()
				d.state = stateEscape
			case '\r':
			default:
				text = append(text, b)
			}

		case stateEscape:
			switch b {
			case '[':
				d.params = d.params[:0]
				d.state = stateCSI
			case ']':
				d.state = stateOSC
			default:
				if b >= 0x20 && b <= 0x2f {
					d.state = stateEscapeInter
				} else {
					d.state = stateGround
				}
			}

		case stateEscapeInter:
			if b >= 0x30 && b <= 0x7e {
				d.state = stateGround
			}

		case stateCSI:
			switch {
			case b >= 0x40 && b <= 0x7e:
				if b == 'm' {
					d.applySGR(string(d.params))
				}
				d.state = stateGround
			default:
				d.params = append(d.params, b)
			}

		case stateOSC:
			switch b {
			case 0x07:
				d.state = stateGround
			case 0x1b:
				d.state = stateOSCEscape
			}

		case stateOSCEscape:
			if b == '\\' {
				d.state = stateGround
			} else {
				d.state = stateOSC
			}
		}
	}

	if n := incompleteTail(text); n > 0 {
		d.pending = append(d.pending, text[len(text)-n:]...)
		text = text[:len(text)-n]
	}
	flush()
}

// Reset returns the decoder to its initial state.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

// incompleteTail returns how many trailing bytes of b start a UTF-8 rune
// that is not yet complete.
func incompleteTail(b []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(b); i++ {
		c := b[len(b)-i]
		if utf8.RuneStart(c) {
			if c >= utf8.RuneSelf && !utf8.FullRune(b[len(b)-i:]) {
				return i
			}
			return 0
		}
	}
	return 0
}

func (d *Decoder) applySGR(raw string) {
	if raw == "" {
		d.style = Style{}
		return
	}
	params := strings.Split(raw, ";")
	for i := 0; i < len(params); i++ {
		n, err := strconv.Atoi(params[i])
		if err != nil {
			if params[i] == "" {
				n = 0
			} else {
				continue
			}
		}
		switch {
		case n == 0:
			d.style = Style{}
		case n == 1:
			d.style.Bold = true
		case n == 2:
			d.style.Faint = true
		case n == 3:
			d.style.Italic = true
		case n == 4:
			d.style.Underline = true
		case n == 7:
			d.style.Reverse = true
		case n == 22:
			d.style.Bold, d.style.Faint = false, false
		case n == 23:
			d.style.Italic = false
		case n == 24:
			d.style.Underline = false
		case n == 27:
			d.style.Reverse = false
		case n >= 30 && n <= 37:
			d.style.Fg = strconv.Itoa(n - 30)
		case n == 39:
			d.style.Fg = ""
		case n >= 40 && n <= 47:
			d.style.Bg = strconv.Itoa(n - 40)
		case n == 49:
			d.style.Bg = ""
		case n >= 90 && n <= 97:
			d.style.Fg = strconv.Itoa(n - 90 + 8)
		case n >= 100 && n <= 107:
			d.style.Bg = strconv.Itoa(n - 100 + 8)
		case n == 38 || n == 48:
			color, used := extendedColor(params[i+1:])
			i += used
			if n == 38 {
				d.style.Fg = color
			} else {
				d.style.Bg = color
			}
		}
	}
}

// extendedColor parses the arguments of a 38/48 sequence and returns the
// color and the number of parameters consumed.
func extendedColor(args []string) (string, int) {
	if len(args) == 0 {
		return "", 0
	}
	switch args[0] {
	case "5":
		if len(args) < 2 {
			return "", len(args)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 || n > 255 {
			return "", 2
		}
		return strconv.Itoa(n), 2
	case "2":
		if len(args) < 4 {
			return "", len(args)
		}
		var rgb [3]int
		for i := range rgb {
			v, err := strconv.Atoi(args[1+i])
			if err != nil || v < 0 || v > 255 {
				return "", 4
			}
			rgb[i] = v
		}
		return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]), 4
	default:
		return "", 1
	}
}
