package stream

import "strings"

// HeaderMarkers are the Eask preamble lines after which the meaningful
// output begins.
var HeaderMarkers = []string{"Loading Eask file", "Checking system"}

// headerEnd returns the offset just past the first marker line in text, or
// -1 when text has no marker line.
func headerEnd(text string) int {
	pos := 0
	for pos <= len(text) {
		next := strings.IndexByte(text[pos:], '\n')
		if next < 0 {
			if isMarker(text[pos:]) {
				return len(text)
			}
			return -1
		}
		if isMarker(text[pos : pos+next]) {
			return pos + next + 1
		}
		pos += next + 1
	}
	return -1
}

func isMarker(line string) bool {
	for _, m := range HeaderMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// trimBounds returns the offsets of text with leading blank lines and
// trailing whitespace removed.
func trimBounds(text string) (int, int) {
	start := 0
	for start < len(text) {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 || strings.TrimSpace(text[start:start+nl]) != "" {
			break
		}
		start += nl + 1
	}
	end := len(strings.TrimRight(text, " \t\n\v\f"))
	if end < start {
		end = start
	}
	return start, end
}

// Strip applies the header policy to doc. With strip enabled and a marker
// line present, everything up to and including the first marker line is
// dropped.
// The result is trimmed of surrounding blank lines; if stripping leaves
// nothing, the whole trimmed document is returned instead.
func Strip(doc Document, strip bool) Document {
	text := doc.Plain()
	fullStart, fullEnd := trimBounds(text)
	full := doc.Slice(fullStart, fullEnd)
	if !strip {
		return full
	}

	cut := headerEnd(text)
	if cut < 0 {
		return full
	}
	rest := text[cut:]
	s, e := trimBounds(rest)
	if s >= e {
		return full
	}
	return doc.Slice(cut+s, cut+e)
}

// StripHeader is Strip on plain text.
func StripHeader(text string, strip bool) string {
	return Strip(Text(text), strip).Plain()
}
