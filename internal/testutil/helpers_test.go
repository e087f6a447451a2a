package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProject(t *testing.T) {
	t.Parallel()

	root := NewProject(t, "steps: {}\n")

	data, err := os.ReadFile(filepath.Join(root, ".bivvy", "config.yml"))
	require.NoError(t, err)
	assert.Equal(t, "steps: {}\n", string(data))
}

func TestWriteTempFile_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "dir")

	path := WriteTempFile(t, dir, ".tool-versions", "ruby 3.3.0\n")

	assert.Equal(t, filepath.Join(dir, ".tool-versions"), path)
	assert.FileExists(t, path)
}

func TestLookupEnv(t *testing.T) {
	t.Parallel()

	lookup := LookupEnv(map[string]string{"CI": ""})

	v, ok := lookup("CI")
	assert.True(t, ok)
	assert.Empty(t, v)

	_, ok = lookup("HOME")
	assert.False(t, ok)
}
