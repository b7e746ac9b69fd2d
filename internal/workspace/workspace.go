// Package workspace checks the preconditions of an Eask operation, loads
// the project descriptor and scopes sandbox overrides around an operation.
package workspace

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// descriptorNames are the plain descriptor file names, in lookup order.
var descriptorNames = []string{"Eask", "Easkfile"}

// Workspace is a located Eask project.
type Workspace struct {
	Root       string
	Descriptor string
	Executable string
}

// IsDescriptorName reports whether name is an Eask descriptor file name:
// Eask, Easkfile, or either followed by an Emacs version such as Eask.29.
func IsDescriptorName(name string) bool {
	for _, base := range descriptorNames {
		if name == base {
			return true
		}
		if rest, ok := strings.CutPrefix(name, base+"."); ok && isVersion(rest) {
			return true
		}
	}
	return false
}

func isVersion(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}

// LookExecutable resolves the eask executable.
func LookExecutable(name string) (string, error) {
	if name == "" {
		name = "eask"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s (%s)", ErrExecutableNotFound, name, Remediation)
	}
	return path, nil
}

// FindDescriptor walks up from dir to the nearest directory holding an
// Eask descriptor. Plain names win over versioned ones; among versioned
// files the highest version wins.
func FindDescriptor(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for cur := abs; ; {
		if path := descriptorIn(cur); path != "" {
			return path, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("%w: no Eask file in %s or its parents", ErrInvalidWorkspace, abs)
		}
		cur = parent
	}
}

func descriptorIn(dir string) string {
	for _, name := range descriptorNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var versioned []string
	for _, e := range entries {
		if !e.IsDir() && IsDescriptorName(e.Name()) {
			versioned = append(versioned, e.Name())
		}
	}
	if len(versioned) == 0 {
		return ""
	}
	sort.Slice(versioned, func(i, j int) bool {
		return compareVersions(suffix(versioned[i]), suffix(versioned[j])) > 0
	})
	return filepath.Join(dir, versioned[0])
}

func suffix(name string) string {
	_, v, _ := strings.Cut(name, ".")
	return v
}

func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		if x != y {
			if x > y {
				return 1
			}
			return -1
		}
	}
	return 0
}

// Check runs both preconditions: the executable must resolve and dir must
// be inside a workspace. Either failure is fatal for the operation.
func Check(executable, dir string) (Workspace, error) {
	exe, err := LookExecutable(executable)
	if err != nil {
		return Workspace{}, err
	}
	desc, err := FindDescriptor(dir)
	if err != nil {
		return Workspace{}, err
	}
	return Workspace{
		Root:       filepath.Dir(desc),
		Descriptor: desc,
		Executable: exe,
	}, nil
}
