package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Source is a package archive declared with (source ...).
type Source struct {
	Name string
	URL  string
}

// Dependency is a (depends-on ...) entry.
type Dependency struct {
	Name    string
	Version string
}

func (d Dependency) String() string {
	if d.Version == "" {
		return d.Name
	}
	return d.Name + " " + d.Version
}

// Script is a named command declared with (script ...).
type Script struct {
	Name    string
	Command string
}

// Descriptor is the subset of an Eask file the controller understands.
type Descriptor struct {
	Path        string
	Name        string
	Version     string
	Description string
	WebsiteURL  string
	PackageFile string
	License     string
	Files       []string
	Keywords    []string
	Authors     []string
	Sources     []Source
	Depends     []Dependency
	DevDepends  []Dependency
	Scripts     []Script
}

// ErrLoad is wrapped by ConfigLoadError when a descriptor has errors but
// no syntax problem.
var ErrLoad = errors.New("descriptor has errors")

// LoadDescriptor reads and interprets the Eask file at path. Diagnostics
// go to diag instead of any global log; a nil diag discards them. Unknown
// directives are warnings. Syntax errors and malformed directives fail the
// load with a *ConfigLoadError that carries every diagnostic.
func LoadDescriptor(path string, diag Diagnostics) (*Descriptor, error) {
	if diag == nil {
		diag = Discard
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, Err: err}
	}
	return parseDescriptor(path, string(data), diag)
}

func parseDescriptor(path, src string, diag Diagnostics) (*Descriptor, error) {
	l := &loader{desc: &Descriptor{Path: path}, diag: diag}

	forms, err := readForms(src)
	if err != nil {
		var syn *SyntaxError
		line := 0
		if errors.As(err, &syn) {
			line = syn.Line
		}
		l.report(slog.LevelError, line, err.Error())
		return nil, &ConfigLoadError{Path: path, Diagnostics: l.seen, Err: err}
	}

	for _, f := range forms {
		l.form(f, false)
	}
	if l.failed {
		return nil, &ConfigLoadError{Path: path, Diagnostics: l.seen, Err: ErrLoad}
	}
	return l.desc, nil
}

type loader struct {
	desc   *Descriptor
	diag   Diagnostics
	seen   []Diagnostic
	failed bool
}

func (l *loader) report(level slog.Level, line int, msg string) {
	d := Diagnostic{Level: level, Line: line, Message: msg}
	l.seen = append(l.seen, d)
	if level >= slog.LevelError {
		l.failed = true
	}
	l.diag.Report(d)
}

func (l *loader) form(f node, dev bool) {
	name := f.head()
	if name == "" {
		l.report(slog.LevelWarn, f.line, fmt.Sprintf("ignoring form %s", f))
		return
	}
	args, err := stringArgs(f.list[1:])

	switch name {
	case "package":
		if err != nil || len(args) != 3 {
			l.malformed(f, "(package NAME VERSION DESCRIPTION)")
			return
		}
		l.desc.Name, l.desc.Version, l.desc.Description = args[0], args[1], args[2]
	case "website-url":
		l.single(f, args, err, &l.desc.WebsiteURL)
	case "package-file":
		l.single(f, args, err, &l.desc.PackageFile)
	case "license":
		l.single(f, args, err, &l.desc.License)
	case "files":
		l.many(f, args, err, &l.desc.Files)
	case "keywords":
		l.many(f, args, err, &l.desc.Keywords)
	case "author":
		if err != nil || len(args) == 0 {
			l.malformed(f, "(author NAME [EMAIL])")
			return
		}
		author := args[0]
		if len(args) > 1 {
			author += " <" + args[1] + ">"
		}
		l.desc.Authors = append(l.desc.Authors, author)
	case "source":
		if err != nil || len(args) == 0 || len(args) > 2 {
			l.malformed(f, "(source NAME [URL])")
			return
		}
		src := Source{Name: args[0]}
		if len(args) == 2 {
			src.URL = args[1]
		}
		l.desc.Sources = append(l.desc.Sources, src)
	case "depends-on":
		if err != nil || len(args) == 0 {
			l.malformed(f, "(depends-on NAME [VERSION])")
			return
		}
		dep := Dependency{Name: args[0]}
		if len(args) > 1 {
			dep.Version = args[1]
		}
		if dev {
			l.desc.DevDepends = append(l.desc.DevDepends, dep)
		} else {
			l.desc.Depends = append(l.desc.Depends, dep)
		}
	case "development":
		for _, child := range f.list[1:] {
			l.form(child, true)
		}
	case "script":
		if err != nil || len(args) != 2 {
			l.malformed(f, "(script NAME COMMAND)")
			return
		}
		l.desc.Scripts = append(l.desc.Scripts, Script{Name: args[0], Command: args[1]})
	default:
		l.report(slog.LevelWarn, f.line, fmt.Sprintf("unknown directive %q", name))
	}
}

func (l *loader) malformed(f node, usage string) {
	l.report(slog.LevelError, f.line, fmt.Sprintf("malformed %s, expected %s", f, usage))
}

func (l *loader) single(f node, args []string, err error, dst *string) {
	if err != nil || len(args) != 1 {
		l.malformed(f, fmt.Sprintf("(%s VALUE)", f.head()))
		return
	}
	*dst = args[0]
}

func (l *loader) many(f node, args []string, err error, dst *[]string) {
	if err != nil {
		l.malformed(f, fmt.Sprintf("(%s VALUE...)", f.head()))
		return
	}
	*dst = append(*dst, args...)
}

// stringArgs flattens atom arguments. A quoted symbol such as 'gnu reads
// as its name.
func stringArgs(nodes []node) ([]string, error) {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s, ok := n.text()
		if !ok {
			return nil, fmt.Errorf("unexpected list %s", n)
		}
		out = append(out, s)
	}
	return out, nil
}

// Summary renders the descriptor for display.
func (d *Descriptor) Summary() string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%-12s %s\n", label+":", value)
		}
	}
	line("Package", strings.TrimSpace(d.Name+" "+d.Version))
	line("Description", d.Description)
	line("Website", d.WebsiteURL)
	line("Entry", d.PackageFile)
	line("License", d.License)
	line("Authors", strings.Join(d.Authors, ", "))
	line("Keywords", strings.Join(d.Keywords, ", "))
	for _, s := range d.Sources {
		line("Source", strings.TrimSpace(s.Name+" "+s.URL))
	}
	deps := func(label string, list []Dependency) {
		names := make([]string, len(list))
		for i, dep := range list {
			names[i] = dep.String()
		}
		line(label, strings.Join(names, ", "))
	}
	deps("Depends", d.Depends)
	deps("Dev depends", d.DevDepends)
	for _, s := range d.Scripts {
		line("Script", s.Name+": "+s.Command)
	}
	line("File", d.Path)
	return strings.TrimRight(b.String(), "\n")
}
