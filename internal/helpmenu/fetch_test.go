package helpmenu

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleHelp = "Usage: eask <command>\n\nCommands:\n  install   Install packages\n  remove    Remove packages\n\n"

func TestFetch_UsesRunner(t *testing.T) {
	var got string
	runner := RunnerFunc(func(_ context.Context, line string) ([]byte, error) {
		got = line
		return []byte(sampleHelp), nil
	})

	opts, err := Fetch(context.Background(), runner, "eask --help", 1)
	require.NoError(t, err)
	assert.Equal(t, "eask --help", got)
	assert.Len(t, opts, 2)
}

func TestFetch_ParseErrorCarriesHelpLine(t *testing.T) {
	runner := RunnerFunc(func(context.Context, string) ([]byte, error) {
		return []byte("command not found"), nil
	})

	_, err := Fetch(context.Background(), runner, "eask lint --help", 2)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "eask lint --help", pe.HelpLine)
	assert.Contains(t, err.Error(), "eask lint --help")
}

func TestFetch_RunnerError(t *testing.T) {
	boom := errors.New("boom")
	runner := RunnerFunc(func(context.Context, string) ([]byte, error) { return nil, boom })

	_, err := Fetch(context.Background(), runner, "eask --help", 1)
	assert.ErrorIs(t, err, boom)
}

func TestShellRunner_IgnoresExitStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	out, err := ShellRunner{}.Output(context.Background(), `printf 'Commands:\n  a  b\n'; exit 1`)
	require.NoError(t, err)

	opts, err := Parse(string(out), 1)
	require.NoError(t, err)
	assert.Equal(t, []Option{{ID: "a", Description: "b"}}, opts)
}

func TestShellRunner_CanceledContext(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ShellRunner{}.Output(ctx, "sleep 5")
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	calls := 0
	runner := RunnerFunc(func(context.Context, string) ([]byte, error) {
		calls++
		return []byte(sampleHelp), nil
	})
	c := NewCache(runner)

	for i := 0; i < 3; i++ {
		opts, err := c.Get(context.Background(), "eask --help", 1)
		require.NoError(t, err)
		assert.Len(t, opts, 2)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.Len())

	c.Invalidate()
	assert.Equal(t, 0, c.Len())
	_, err := c.Get(context.Background(), "eask --help", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCache_DoesNotCacheFailures(t *testing.T) {
	calls := 0
	runner := RunnerFunc(func(context.Context, string) ([]byte, error) {
		calls++
		return []byte("no listing"), nil
	})
	c := NewCache(runner)

	_, err := c.Get(context.Background(), "eask --help", 1)
	assert.ErrorIs(t, err, ErrParse)
	_, err = c.Get(context.Background(), "eask --help", 1)
	assert.ErrorIs(t, err, ErrParse)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}
