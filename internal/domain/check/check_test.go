package check_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/bivvy/internal/domain/check"
	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExists(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "Gemfile.lock"), nil, 0o644))
	abs := filepath.Join(t.TempDir(), "absolute")
	require.NoError(t, os.WriteFile(abs, nil, 0o644))

	c := check.NewChecker(mocks.NewShell())
	ctx := context.Background()

	res := c.Run(ctx, config.FileExists("Gemfile.lock"), root)
	assert.True(t, res.Complete)
	assert.Equal(t, "File exists: Gemfile.lock", res.Description)

	res = c.Run(ctx, config.FileExists(abs), root)
	assert.True(t, res.Complete, "absolute paths ignore the root")

	res = c.Run(ctx, config.FileExists("node_modules"), root)
	assert.False(t, res.Complete)
	assert.Equal(t, "File missing: node_modules", res.Description)
	assert.Equal(t, "Expected at: "+filepath.Join(root, "node_modules"), res.Details)
}

func TestCommandSucceeds(t *testing.T) {
	t.Parallel()

	shell := mocks.NewShell().
		Succeed("bundle check", "The Gemfile's dependencies are satisfied").
		Fail("yarn check", 1, "missing packages\n").
		AddError("broken", errors.New("exec: sh not found"))

	c := check.NewChecker(shell, check.WithSearchPath(func() []string { return []string{"/opt/bin"} }))
	ctx := context.Background()

	res := c.Run(ctx, config.CommandSucceeds("bundle check"), "/project")
	assert.True(t, res.Complete)
	assert.Equal(t, "Command succeeded: bundle check", res.Description)

	res = c.Run(ctx, config.CommandSucceeds("yarn check"), "/project")
	assert.False(t, res.Complete)
	assert.Equal(t, "exit code 1: missing packages", res.Details)

	res = c.Run(ctx, config.CommandSucceeds("broken"), "/project")
	assert.False(t, res.Complete)
	assert.Contains(t, res.Details, "sh not found")

	calls := shell.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/project", calls[0].Options.Dir)
	assert.Equal(t, []string{"/opt/bin"}, calls[0].Options.SearchPath)
}

func TestCommandSucceeds_TruncatesLongCommands(t *testing.T) {
	t.Parallel()

	long := "echo " + strings.Repeat("x", 80)
	c := check.NewChecker(mocks.NewShell().Succeed(long, ""))

	res := c.Run(context.Background(), config.CommandSucceeds(long), t.TempDir())
	label := strings.TrimPrefix(res.Description, "Command succeeded: ")
	assert.Len(t, []rune(label), 50)
	assert.True(t, strings.HasSuffix(label, "..."))
}

func TestMarker(t *testing.T) {
	t.Parallel()

	res := check.NewChecker(mocks.NewShell()).Run(context.Background(), config.CompletedCheck{Type: config.CheckMarker}, "/")
	assert.False(t, res.Complete)
	assert.Equal(t, "Marker check", res.Description)
}

func TestComposite(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "present"), nil, 0o644))
	shell := mocks.NewShell().Succeed("true", "").Fail("false", 1, "")
	c := check.NewChecker(shell)
	ctx := context.Background()

	res := c.Run(ctx, config.AllOf(config.FileExists("present"), config.CommandSucceeds("true")), root)
	assert.True(t, res.Complete)
	assert.Equal(t, "All 2 checks passed", res.Description)

	res = c.Run(ctx, config.AllOf(
		config.FileExists("present"),
		config.FileExists("absent"),
		config.CommandSucceeds("false"),
	), root)
	assert.False(t, res.Complete)
	assert.Equal(t, "2/3 checks failed", res.Description)
	assert.Equal(t, "File missing: absent; Command failed: false", res.Details)

	res = c.Run(ctx, config.AnyOf(config.FileExists("absent"), config.CommandSucceeds("true")), root)
	assert.True(t, res.Complete)
	assert.Equal(t, "Check passed: Command succeeded: true", res.Description)

	res = c.Run(ctx, config.AnyOf(config.FileExists("absent"), config.CommandSucceeds("false")), root)
	assert.False(t, res.Complete)
	assert.Equal(t, "None of 2 checks passed", res.Description)

	nested := config.AnyOf(config.AllOf(config.FileExists("present"), config.AnyOf(config.CommandSucceeds("true"))))
	assert.True(t, c.Run(ctx, nested, root).Complete)
}

func TestUnknownType(t *testing.T) {
	t.Parallel()

	res := check.NewChecker(mocks.NewShell()).Run(context.Background(), config.CompletedCheck{Type: "vibes"}, "/")
	assert.False(t, res.Complete)
	assert.Equal(t, "Unknown check type: vibes", res.Description)
}
