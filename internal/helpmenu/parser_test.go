package helpmenu

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Scenario(t *testing.T) {
	text := "Commands:\n  install   Install packages\n  remove    Remove packages\n\n"

	opts, err := Parse(text, 1)
	require.NoError(t, err)
	assert.Equal(t, []Option{
		{ID: "install", Description: "Install packages"},
		{ID: "remove", Description: "Remove packages"},
	}, opts)
}

func TestParse_KeepsSourceOrder(t *testing.T) {
	names := []string{"zeta", "alpha", "mid", "beta", "omega"}
	var b strings.Builder
	b.WriteString("Usage: eask <command> [options..]\n\nCommands:\n")
	for _, n := range names {
		fmt.Fprintf(&b, "  %-10s  Does %s things\n", n, n)
	}
	b.WriteString("\nOptions:\n  --help  Show help\n")

	opts, err := Parse(b.String(), 1)
	require.NoError(t, err)
	require.Len(t, opts, len(names))
	for i, n := range names {
		assert.Equal(t, n, opts[i].ID)
		assert.Equal(t, "Does "+n+" things", opts[i].Description)
	}
}

func TestParse_TokenIndexByDepth(t *testing.T) {
	text := `eask lint <type>

Commands:
  eask lint checkdoc [files..]   Run checkdoc
  eask lint package [files..]    Run package-lint

Positionals:
`
	opts, err := Parse(text, 3)
	require.NoError(t, err)
	assert.Equal(t, []Option{
		{ID: "checkdoc", Description: "Run checkdoc"},
		{ID: "package", Description: "Run package-lint"},
	}, opts)

	top, err := Parse(text, 1)
	require.NoError(t, err)
	assert.Equal(t, "eask", top[0].ID)
}

func TestParse_MissingMarker(t *testing.T) {
	opts, err := Parse("Usage: eask\n\n  install  Install\n", 1)
	assert.Nil(t, opts)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))

	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}

func TestParse_MalformedSpacingGivesEmptyDescription(t *testing.T) {
	opts, err := Parse("Commands:\n  install Install packages\n  archives\n\n", 1)
	require.NoError(t, err)
	assert.Equal(t, []Option{
		{ID: "install", Description: ""},
		{ID: "archives", Description: ""},
	}, opts)
}

func TestParse_SkipsShortLines(t *testing.T) {
	opts, err := Parse("Commands:\n  eask\n  eask info   Show info\n\n", 2)
	require.NoError(t, err)
	assert.Equal(t, []Option{{ID: "info", Description: "Show info"}}, opts)
}

func TestParse_StopsAtFirstBlankLine(t *testing.T) {
	opts, err := Parse("Commands:\n  a  first\n   \n  b  second\n", 1)
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}

func TestParse_EmptyListing(t *testing.T) {
	opts, err := Parse("Commands:\n\n", 1)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestParse_CRLFAndTabs(t *testing.T) {
	opts, err := Parse("Commands:\r\n\tinstall\tInstall packages\r\n\r\n", 1)
	require.NoError(t, err)
	assert.Equal(t, []Option{{ID: "install", Description: "Install packages"}}, opts)
}

func TestParse_InvalidTokenIndex(t *testing.T) {
	_, err := Parse("Commands:\n  a  b\n", 0)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrParse))
}
