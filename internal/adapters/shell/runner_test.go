package shell_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bivvy/internal/adapters/shell"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX shell syntax")
	}
}

func TestRunner_Execute(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	tests := []struct {
		name     string
		command  string
		exitCode int
		stdout   string
		stderr   string
	}{
		{name: "success", command: "echo hello", stdout: "hello\n"},
		{name: "exit code", command: "exit 3", exitCode: 3},
		{name: "stderr", command: "echo oops >&2; exit 1", exitCode: 1, stderr: "oops\n"},
		{name: "missing tool", command: "definitely-not-a-tool-4711", exitCode: 127},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result, err := shell.NewRunner().Execute(context.Background(), tt.command, ports.ShellOptions{})

			require.NoError(t, err)
			assert.Equal(t, tt.exitCode, result.ExitCode)
			assert.Equal(t, tt.exitCode == 0, result.Success())
			assert.Equal(t, tt.stdout, result.Stdout)
			if tt.stderr != "" {
				assert.Equal(t, tt.stderr, result.Stderr)
			}
		})
	}
}

func TestRunner_Execute_DirAndEnv(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	dir := t.TempDir()
	runner := shell.NewRunner(shell.WithEnviron(func() []string {
		return []string{"PATH=" + os.Getenv("PATH"), "INHERITED=base", "OVERRIDDEN=base"}
	}))

	result, err := runner.Execute(context.Background(), `pwd; echo "$INHERITED $OVERRIDDEN $ADDED"`, ports.ShellOptions{
		Dir: dir,
		Env: map[string]string{"OVERRIDDEN": "step", "ADDED": "new"},
	})

	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, []string{dir + "\n", resolved + "\n"}, firstLine(result.Stdout)+"\n")
	assert.Contains(t, result.Stdout, "base step new\n")
}

func TestRunner_Execute_SearchPathReplacesPATH(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	bin := t.TempDir()
	script := filepath.Join(bin, "greeter")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho from-search-path\n"), 0o755))

	result, err := shell.NewRunner().Execute(context.Background(), `greeter; echo "$PATH"`, ports.ShellOptions{
		SearchPath: []string{bin, "/usr/bin", "/bin"},
	})

	require.NoError(t, err)
	assert.Equal(t, "from-search-path\n"+bin+":/usr/bin:/bin\n", result.Stdout)
}

func TestRunner_ExecuteStreaming(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	var lines []ports.OutputLine
	result, err := shell.NewRunner().ExecuteStreaming(context.Background(),
		"echo one; echo two; echo warn >&2; exit 2",
		ports.ShellOptions{},
		func(line ports.OutputLine) { lines = append(lines, line) },
	)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
	assert.Equal(t, "one\ntwo\n", result.Stdout)
	assert.Equal(t, "warn\n", result.Stderr)

	var stdout []string
	for _, line := range lines {
		if line.Stream == ports.Stdout {
			stdout = append(stdout, line.Text)
		}
	}
	assert.Equal(t, []string{"one", "two"}, stdout)
	assert.Contains(t, lines, ports.OutputLine{Stream: ports.Stderr, Text: "warn"})
}

func TestRunner_ExecuteStreaming_OverlongLine(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const size = 2*1024*1024 + 10
	var lines []ports.OutputLine
	result, err := shell.NewRunner().ExecuteStreaming(ctx,
		fmt.Sprintf("head -c %d /dev/zero | tr '\\0' x; echo; echo done; echo after >&2", size),
		ports.ShellOptions{},
		func(line ports.OutputLine) { lines = append(lines, line) },
	)

	require.NoError(t, err)
	assert.Zero(t, result.ExitCode)

	var stdout []string
	total := 0
	for _, line := range lines {
		if line.Stream == ports.Stdout {
			stdout = append(stdout, line.Text)
			total += len(line.Text)
		}
	}
	require.Len(t, stdout, 4)
	assert.Len(t, stdout[0], 1024*1024)
	assert.Equal(t, "done", stdout[3])
	assert.Equal(t, size+len("done"), total)
	assert.Equal(t, "after\n", result.Stderr)
}

func TestRunner_ExecuteStreaming_NilCallback(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	result, err := shell.NewRunner().ExecuteStreaming(context.Background(), "echo quiet", ports.ShellOptions{}, nil)

	require.NoError(t, err)
	assert.Equal(t, "quiet\n", result.Stdout)
}

func TestRunner_StartFailure(t *testing.T) {
	t.Parallel()

	runner := shell.NewRunner(shell.WithShell("no-such-shell-4711", "-c"))

	_, err := runner.Execute(context.Background(), "true", ports.ShellOptions{})
	require.Error(t, err)

	_, err = runner.ExecuteStreaming(context.Background(), "true", ports.ShellOptions{}, nil)
	require.Error(t, err)
}

func TestRunner_Cancelled(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := shell.NewRunner().Execute(ctx, "sleep 5", ports.ShellOptions{})

	require.ErrorIs(t, err, context.Canceled)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
