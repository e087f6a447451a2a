// Package testutil provides test helpers and utilities for bivvy tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteConfig writes content to .bivvy/config.yml below root and returns
// the file path.
func WriteConfig(t testing.TB, root, content string) string {
	t.Helper()

	return WriteTempFile(t, filepath.Join(root, ".bivvy"), "config.yml", content)
}

// NewProject creates a temporary project directory holding a config file.
func NewProject(t testing.TB, content string) string {
	t.Helper()

	root := t.TempDir()
	WriteConfig(t, root, content)
	return root
}

// WriteTempFile writes content to a file in dir, creating dir if needed.
func WriteTempFile(t testing.TB, dir, filename, content string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755), "failed to create directory: %s", dir)
	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// LookupEnv returns an os.LookupEnv replacement backed by vars.
func LookupEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}
