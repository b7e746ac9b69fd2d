// Package command builds Eask command lines and maps menu selections to
// statically registered handlers.
package command

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// Format builds a single shell command line from verb, the positional args
// and the global extra flags. Nil args are omitted entirely; every present
// arg is escaped on its own. The verb and extra flags are trusted and passed
// through verbatim.
func Format(verb string, args []*string, extra []string) string {
	parts := make([]string, 0, 2+len(args))
	if v := strings.TrimSpace(verb); v != "" {
		parts = append(parts, v)
	}

	present := make([]string, 0, len(args))
	for _, a := range args {
		if a != nil {
			present = append(present, *a)
		}
	}
	if len(present) > 0 {
		parts = append(parts, shellquote.Join(present...))
	}

	for _, f := range extra {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// Args converts plain strings into a positional argument list.
func Args(values ...string) []*string {
	out := make([]*string, len(values))
	for i := range values {
		out[i] = &values[i]
	}
	return out
}

// Optional maps a blank prompt answer to an absent argument.
func Optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Split breaks a user-typed argument string into positional args using
// shell quoting rules. Blank input yields no args.
func Split(input string) ([]*string, error) {
	words, err := shellquote.Split(input)
	if err != nil {
		return nil, err
	}
	return Args(words...), nil
}
