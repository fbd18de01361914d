package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketPath(t *testing.T) {
	a := SocketPath("/run/user/1000/cask", "/home/u/store.gpg")
	b := SocketPath("/run/user/1000/cask", "/home/u/store.gpg")
	c := SocketPath("/run/user/1000/cask", "/home/u/other.gpg")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "/run/user/1000/cask", filepath.Dir(a))

	name := filepath.Base(a)
	assert.True(t, strings.HasSuffix(name, ".sock"))
	assert.Len(t, strings.TrimSuffix(name, ".sock"), socketNameLen)
}

func TestDefaultSocketDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/42")
	assert.Equal(t, "/run/user/42/cask", DefaultSocketDir())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.True(t, strings.HasPrefix(filepath.Base(DefaultSocketDir()), "cask-"))
}

func TestEnsureSocketDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sock")
	require.NoError(t, EnsureSocketDir(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())

	// Idempotent.
	require.NoError(t, EnsureSocketDir(dir))

	require.NoError(t, os.Chmod(dir, 0755))
	assert.Error(t, EnsureSocketDir(dir))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0600))
	assert.Error(t, EnsureSocketDir(file))
}
