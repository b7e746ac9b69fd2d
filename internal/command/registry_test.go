package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterValidates(t *testing.T) {
	r := NewRegistry()

	assert.ErrorIs(t, r.Register("", Leaf("")), ErrInvalidHandler)
	assert.ErrorIs(t, r.Register("   ", Leaf("")), ErrInvalidHandler)
	assert.ErrorIs(t, r.Register("install", nil), ErrInvalidHandler)

	require.NoError(t, r.Register("install", Leaf("")))
	assert.ErrorIs(t, r.Register("install", Leaf("")), ErrInvalidHandler)
	assert.ErrorIs(t, r.Register(" install ", Leaf("")), ErrInvalidHandler)
}

func TestRegistry_FallbackNotImplemented(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve(Request{Path: []string{"frobnicate"}, Executable: "eask"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotImplemented))
	assert.Contains(t, err.Error(), "frobnicate")
	assert.False(t, r.Has("frobnicate"))
}

func TestRegistry_LeafAction(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterLeaf("lint package", "files (optional)"))

	a := "foo.el"
	act, err := r.Resolve(Request{
		Path:       []string{"lint", "package"},
		Args:       []*string{nil, &a},
		Executable: "eask",
		Extra:      []string{"--strict"},
	})
	require.NoError(t, err)
	assert.Equal(t, ActionRun, act.Kind)
	assert.Equal(t, "eask lint package foo.el --strict", act.CommandLine)
	assert.Equal(t, "files (optional)", r.Prompt("lint  package"))
}

func TestRegistry_GroupAction(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterGroup("generate workflow"))

	act, err := r.Resolve(Request{Path: []string{"generate", "workflow"}, Executable: "eask"})
	require.NoError(t, err)
	assert.Equal(t, ActionMenu, act.Kind)
	assert.Equal(t, "eask generate workflow --help", act.HelpLine)
	assert.Equal(t, 3, act.TokenIndex)
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	for _, id := range []string{"install", "lint", "lint package", "generate workflow github"} {
		assert.True(t, r.Has(id), id)
	}

	act, err := r.Resolve(Request{Path: []string{"lint"}, Executable: "eask"})
	require.NoError(t, err)
	assert.Equal(t, ActionMenu, act.Kind)
	assert.Equal(t, 2, act.TokenIndex)
}

func TestHelpLine(t *testing.T) {
	assert.Equal(t, "eask --help", HelpLine("eask"))
	assert.Equal(t, "/opt/eask/bin/eask lint --help", HelpLine("/opt/eask/bin/eask", "lint"))
}

func TestActionKind_String(t *testing.T) {
	assert.Equal(t, "run", ActionRun.String())
	assert.Equal(t, "menu", ActionMenu.String())
	assert.Equal(t, "unknown(9)", ActionKind(9).String())
}
