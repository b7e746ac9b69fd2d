package workspace

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Sandbox is a set of environment and directory overrides applied for the
// duration of one controller operation.
type Sandbox struct {
	Env map[string]string
	Dir string
}

// Environ returns base with the sandbox variables overriding any existing
// entries. A nil base uses the process environment.
func (s Sandbox) Environ(base []string) []string {
	if base == nil {
		base = os.Environ()
	}
	out := make([]string, 0, len(base)+len(s.Env))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := s.Env[key]; ok {
			continue
		}
		out = append(out, kv)
	}
	for _, key := range s.keys() {
		out = append(out, key+"="+s.Env[key])
	}
	return out
}

func (s Sandbox) keys() []string {
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scope applies the overrides to the process, runs fn and restores the
// previous state on every exit path, panics included.
func (s Sandbox) Scope(fn func() error) (err error) {
	type saved struct {
		value string
		set   bool
	}
	prev := make(map[string]saved, len(s.Env))
	defer func() {
		for key, p := range prev {
			if p.set {
				os.Setenv(key, p.value)
			} else {
				os.Unsetenv(key)
			}
		}
	}()
	for _, key := range s.keys() {
		v, ok := os.LookupEnv(key)
		prev[key] = saved{value: v, set: ok}
		if err := os.Setenv(key, s.Env[key]); err != nil {
			return fmt.Errorf("sandbox set %s: %w", key, err)
		}
	}

	if s.Dir != "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("sandbox getwd: %w", err)
		}
		if err := os.Chdir(s.Dir); err != nil {
			return fmt.Errorf("sandbox chdir: %w", err)
		}
		defer os.Chdir(wd)
	}

	return fn()
}
