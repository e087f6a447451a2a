package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bivvy/internal/adapters/historyfile"
	"github.com/felixgeelhaar/bivvy/internal/app"
	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/testutil"
)

const cliConfig = `app_name: cli
steps:
  hello:
    command: echo hello from ${project_name}
    completed_check:
      type: file_exists
      path: done.txt
  mark:
    command: touch done.txt
    depends_on: [hello]
workflows:
  quick:
    description: Just say hello
    steps: [hello]
`

// executeCommand runs the root command with args against a fresh set of
// global flag values and returns what it printed.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	reset := func() {
		cfgFile, projectDir, envName, logFormat = "", "", "", "text"
		verbose, nonInteractive, yesFlag = false, false, false
		runSkipBehavior, runDryRun = "skip-with-dependents", false
		planSkipBehavior = "skip-with-dependents"
		historyLimit = 20
	}
	reset()
	t.Cleanup(reset)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := Execute(context.Background())
	return stdout.String(), stderr.String(), err
}

func newProject(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("commands use a POSIX shell")
	}
	return testutil.NewProject(t, cliConfig)
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "version")

	require.NoError(t, err)
	assert.Contains(t, stdout, "bivvy dev")
	assert.Contains(t, stdout, "commit: none")
}

func TestRun_Workflow(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand(t, "run", "quick", "--dir", dir, "--non-interactive")

	require.NoError(t, err)
	assert.Contains(t, stdout, "hello from cli")
	assert.Contains(t, stdout, "Quick workflow complete")
	assert.FileExists(t, filepath.Join(dir, historyfile.DefaultPath))
}

func TestRun_CompletedStepIsSkipped(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "done.txt"), nil, 0o644))

	stdout, _, err := executeCommand(t, "run", "--dir", dir, "--yes")

	require.NoError(t, err)
	assert.NotContains(t, stdout, "hello from cli")
	assert.Contains(t, stdout, "○ hello (already complete)")
}

func TestRun_DryRun(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand(t, "run", "--dir", dir, "--dry-run", "--non-interactive")

	require.NoError(t, err)
	assert.Contains(t, stdout, "~ mark would run: touch done.txt")
	assert.NoFileExists(t, filepath.Join(dir, "done.txt"))
	assert.NoFileExists(t, filepath.Join(dir, historyfile.DefaultPath))
}

func TestRun_UnknownWorkflow(t *testing.T) {
	dir := newProject(t)

	_, _, err := executeCommand(t, "run", "nope", "--dir", dir)

	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeUnknownWorkflow))
	assert.Contains(t, formatError(err), "Suggestion: Available workflows: quick")
}

func TestRun_MissingConfig(t *testing.T) {
	_, _, err := executeCommand(t, "run", "--dir", t.TempDir())

	require.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestRun_InvalidLogFormat(t *testing.T) {
	dir := newProject(t)

	_, _, err := executeCommand(t, "run", "--dir", dir, "--log-format", "xml")

	require.ErrorContains(t, err, `unknown log format "xml"`)
}

func TestRun_VerboseLogsToStderr(t *testing.T) {
	dir := newProject(t)

	_, stderr, err := executeCommand(t, "run", "quick", "--dir", dir, "--non-interactive", "--verbose", "--log-format", "json")

	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"starting run"`)
}

func TestPlanCommand(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand(t, "plan", "--dir", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Default plan")
	assert.Contains(t, stdout, "1. hello")
	assert.Contains(t, stdout, "2. mark")
	assert.NoFileExists(t, filepath.Join(dir, "done.txt"))
}

func TestListCommand(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand(t, "list", "--dir", dir)

	require.NoError(t, err)
	assert.Contains(t, stdout, "Just say hello")
	assert.Contains(t, stdout, "[after: hello]")
}

func TestRequirementsCommand(t *testing.T) {
	dir := newProject(t)

	stdout, _, err := executeCommand(t, "requirements", "--dir", dir, "--env", "ci")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Requirements (environment ci (--env flag))")
	assert.Contains(t, stdout, "No step declares requirements.")
}

func TestHistoryCommand(t *testing.T) {
	dir := newProject(t)
	_, _, err := executeCommand(t, "run", "quick", "--dir", dir, "--non-interactive")
	require.NoError(t, err)

	stdout, _, err := executeCommand(t, "history", "--dir", dir, "--limit", "1")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Run history")
	assert.Contains(t, stdout, "quick")
}

func TestHistoryCommand_NegativeLimit(t *testing.T) {
	_, _, err := executeCommand(t, "history", "--limit", "-1")

	require.ErrorContains(t, err, "must not be negative")
}

func TestNewBivvy_CanBeReplaced(t *testing.T) {
	dir := newProject(t)
	original := newBivvy
	t.Cleanup(func() { newBivvy = original })

	var called bool
	newBivvy = func(cmd *cobra.Command) (*app.Bivvy, error) {
		called = true
		return original(cmd)
	}

	_, _, err := executeCommand(t, "list", "--dir", dir)

	require.NoError(t, err)
	assert.True(t, called)
}
