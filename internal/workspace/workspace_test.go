package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIsDescriptorName(t *testing.T) {
	for _, name := range []string{"Eask", "Easkfile", "Eask.29", "Easkfile.28.2"} {
		assert.True(t, IsDescriptorName(name), name)
	}
	for _, name := range []string{"eask", "Eask.", "Eask.el", "Easkfile.x", "Makefile"} {
		assert.False(t, IsDescriptorName(name), name)
	}
}

func TestFindDescriptor_WalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Eask"), `(package "demo" "0.1.0" "Demo")`)
	nested := filepath.Join(root, "lisp", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, err := FindDescriptor(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Eask"), path)
}

func TestFindDescriptor_PrefersPlainThenHighestVersion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Eask.28"), "")
	writeFile(t, filepath.Join(dir, "Eask.29.1"), "")
	writeFile(t, filepath.Join(dir, "Eask.29"), "")

	path, err := FindDescriptor(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Eask.29.1"), path)

	writeFile(t, filepath.Join(dir, "Easkfile"), "")
	path, err = FindDescriptor(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Easkfile"), path)
}

func TestFindDescriptor_Missing(t *testing.T) {
	_, err := FindDescriptor(t.TempDir())
	assert.True(t, errors.Is(err, ErrInvalidWorkspace))
}

func TestLookExecutable_Missing(t *testing.T) {
	_, err := LookExecutable("easky-definitely-missing-binary")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExecutableNotFound))
	assert.Contains(t, err.Error(), "npm install -g @emacs-eask/cli")
}

func TestCheck(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	dir := t.TempDir()

	_, err := Check("easky-definitely-missing-binary", dir)
	assert.ErrorIs(t, err, ErrExecutableNotFound)

	_, err = Check("sh", dir)
	assert.ErrorIs(t, err, ErrInvalidWorkspace)

	writeFile(t, filepath.Join(dir, "Easkfile"), "")
	ws, err := Check("sh", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Easkfile"), ws.Descriptor)
	assert.NotEmpty(t, ws.Executable)
	assert.Equal(t, filepath.Dir(ws.Descriptor), ws.Root)
}
