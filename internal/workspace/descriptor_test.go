package workspace

import (
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEask = `;; -*- mode: eask; lexical-binding: t -*-

(package "demo"
         "0.1.0"
         "A demo package")

(website-url "https://github.com/example/demo")
(keywords "tools" "convenience")
(author "Jane Doe" "jane@example.com")
(license "GPLv3")

(package-file "demo.el")
(files "demo.el" "demo-*.el")

(script "test" "echo \"Run tests\"")

(source 'gnu)
(source "melpa" "https://melpa.org/packages/")

(depends-on "emacs" "26.1")
(depends-on "dash")

(development
 (depends-on "ert-runner"))
`

func TestLoadDescriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Eask")
	writeFile(t, path, sampleEask)

	capture := &Capture{}
	desc, err := LoadDescriptor(path, capture)
	require.NoError(t, err)
	assert.Empty(t, capture.Entries())

	assert.Equal(t, path, desc.Path)
	assert.Equal(t, "demo", desc.Name)
	assert.Equal(t, "0.1.0", desc.Version)
	assert.Equal(t, "A demo package", desc.Description)
	assert.Equal(t, "https://github.com/example/demo", desc.WebsiteURL)
	assert.Equal(t, []string{"tools", "convenience"}, desc.Keywords)
	assert.Equal(t, []string{"Jane Doe <jane@example.com>"}, desc.Authors)
	assert.Equal(t, "demo.el", desc.PackageFile)
	assert.Equal(t, []string{"demo.el", "demo-*.el"}, desc.Files)
	assert.Equal(t, []Script{{Name: "test", Command: `echo "Run tests"`}}, desc.Scripts)
	assert.Equal(t, []Source{{Name: "gnu"}, {Name: "melpa", URL: "https://melpa.org/packages/"}}, desc.Sources)
	assert.Equal(t, []Dependency{{Name: "emacs", Version: "26.1"}, {Name: "dash"}}, desc.Depends)
	assert.Equal(t, []Dependency{{Name: "ert-runner"}}, desc.DevDepends)

	summary := desc.Summary()
	assert.Contains(t, summary, "demo 0.1.0")
	assert.Contains(t, summary, "emacs 26.1, dash")
}

func TestLoadDescriptor_UnknownDirectiveWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Eask")
	writeFile(t, path, "(package \"demo\" \"1.0\" \"x\")\n(exec-paths \"bin\")\n")

	capture := &Capture{}
	desc, err := LoadDescriptor(path, capture)
	require.NoError(t, err)
	assert.Equal(t, "demo", desc.Name)

	entries := capture.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, slog.LevelWarn, entries[0].Level)
	assert.Equal(t, 2, entries[0].Line)
	assert.Contains(t, entries[0].Message, "exec-paths")
}

func TestLoadDescriptor_SyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Eask")
	writeFile(t, path, "(package \"demo\" \"1.0\" \"x\")\n\n(depends-on \"dash\"\n")

	capture := &Capture{}
	_, err := LoadDescriptor(path, capture)
	require.Error(t, err)

	var loadErr *ConfigLoadError
	require.True(t, errors.As(err, &loadErr))
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, 3, syn.Line)

	require.Len(t, loadErr.Diagnostics, 1)
	assert.Equal(t, capture.Entries(), loadErr.Diagnostics)
	banner := loadErr.Banner()
	assert.Contains(t, banner, "Error loading Eask file "+path)
	assert.Contains(t, banner, "error: line 3: unbalanced parenthesis")
}

func TestLoadDescriptor_MalformedDirectiveFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Eask")
	writeFile(t, path, "(package \"demo\")\n(foo)\n")

	_, err := LoadDescriptor(path, nil)
	var loadErr *ConfigLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.ErrorIs(t, err, ErrLoad)
	require.Len(t, loadErr.Diagnostics, 2)
	assert.Equal(t, slog.LevelError, loadErr.Diagnostics[0].Level)
	assert.Equal(t, slog.LevelWarn, loadErr.Diagnostics[1].Level)

	banner := loadErr.Banner()
	assert.Contains(t, banner, "error: malformed")
	assert.Contains(t, banner, `warning: unknown directive "foo"`)
}

func TestLoadDescriptor_MissingFile(t *testing.T) {
	_, err := LoadDescriptor(filepath.Join(t.TempDir(), "Eask"), nil)
	var loadErr *ConfigLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestReadForms(t *testing.T) {
	forms, err := readForms("; comment\n(a \"b\\\"c\" 'd #'e (f))\n")
	require.NoError(t, err)
	require.Len(t, forms, 1)
	assert.Equal(t, `(a "b\"c" d e (f))`, forms[0].String())

	_, err = readForms(")")
	assert.Error(t, err)

	_, err = readForms(`("open`)
	var syn *SyntaxError
	require.True(t, errors.As(err, &syn))
	assert.Equal(t, "unterminated string", syn.Msg)
}
