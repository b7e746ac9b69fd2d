package helpmenu

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Runner executes a help command line and returns its combined output.
type Runner interface {
	Output(ctx context.Context, commandLine string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, commandLine string) ([]byte, error)

// Output calls f.
func (f RunnerFunc) Output(ctx context.Context, commandLine string) ([]byte, error) {
	return f(ctx, commandLine)
}

// ShellRunner runs help commands through the platform shell.
type ShellRunner struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is the child environment; nil inherits the parent's.
	Env []string
}

// Output runs commandLine synchronously. A non-zero exit status is not an
// error as long as the process ran; many CLIs exit 1 after printing help.
func (r ShellRunner) Output(ctx context.Context, commandLine string) ([]byte, error) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/C", commandLine)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", commandLine)
	}
	cmd.Dir = r.Dir
	cmd.Env = r.Env

	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			return out, nil
		}
		return out, fmt.Errorf("run %q: %w", commandLine, err)
	}
	return out, nil
}

// Fetch runs helpLine and parses the listing. It blocks until the help
// command finishes.
func Fetch(ctx context.Context, runner Runner, helpLine string, tokenIndex int) ([]Option, error) {
	out, err := runner.Output(ctx, helpLine)
	if err != nil {
		return nil, err
	}
	options, err := Parse(string(out), tokenIndex)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.HelpLine = helpLine
		}
		return nil, err
	}
	return options, nil
}

// Cache memoizes fetched menus per help line and token index.
type Cache struct {
	runner Runner

	mu      sync.Mutex
	entries map[cacheKey][]Option
}

type cacheKey struct {
	line  string
	index int
}

// NewCache creates a cache that fetches through runner.
func NewCache(runner Runner) *Cache {
	return &Cache{runner: runner, entries: make(map[cacheKey][]Option)}
}

// Get returns the cached menu for helpLine, fetching it on a miss. Failed
// fetches are not cached.
func (c *Cache) Get(ctx context.Context, helpLine string, tokenIndex int) ([]Option, error) {
	key := cacheKey{line: helpLine, index: tokenIndex}

	c.mu.Lock()
	if opts, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return opts, nil
	}
	c.mu.Unlock()

	opts, err := Fetch(ctx, c.runner, helpLine, tokenIndex)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = opts
	c.mu.Unlock()
	return opts, nil
}

// Invalidate drops every cached menu.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[cacheKey][]Option)
	c.mu.Unlock()
}

// Len returns the number of cached menus.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
