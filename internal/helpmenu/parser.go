// Package helpmenu discovers subcommands by running a help invocation and
// parsing its "Commands:" listing into ordered menu options.
//
// Fetch is the one deliberately blocking call in the controller: the help
// text must be complete before any menu can be shown, and it always runs
// before a session exists.
package helpmenu

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Marker is the line that introduces the subcommand listing.
const Marker = "Commands:"

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("help text has no commands listing")

// Option is one selectable subcommand.
type Option struct {
	ID          string
	Description string
}

// ParseError reports help output that could not be turned into a menu.
type ParseError struct {
	HelpLine string
	Output   string
}

func (e *ParseError) Error() string {
	if e.HelpLine == "" {
		return fmt.Sprintf("%s: missing %q marker", ErrParse, Marker)
	}
	return fmt.Sprintf("%s: missing %q marker in output of %q", ErrParse, Marker, e.HelpLine)
}

func (e *ParseError) Unwrap() error { return ErrParse }

var descSeparator = regexp.MustCompile(` {2,}`)

// Parse extracts the options listed after the Commands: marker. tokenIndex
// is the 1-based whitespace token holding the subcommand name. Options keep
// the order of the help text.
func Parse(text string, tokenIndex int) ([]Option, error) {
	if tokenIndex < 1 {
		return nil, fmt.Errorf("token index must be >= 1, got %d", tokenIndex)
	}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, Marker) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, &ParseError{Output: text}
	}

	options := []Option{}
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < tokenIndex {
			continue
		}
		options = append(options, Option{
			ID:          fields[tokenIndex-1],
			Description: description(line),
		})
	}
	return options, nil
}

// description returns the text after the first run of two or more spaces
// that follows the start of the listing line.
func description(line string) string {
	body := strings.TrimLeft(strings.ReplaceAll(line, "\t", "  "), " ")
	loc := descSeparator.FindStringIndex(body)
	if loc == nil {
		return ""
	}
	return strings.TrimSpace(body[loc[1]:])
}
