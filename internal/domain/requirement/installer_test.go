package requirement_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/bivvy/internal/domain/requirement"
	"github.com/felixgeelhaar/bivvy/internal/ports"
	"github.com/felixgeelhaar/bivvy/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// widgetRegistry defines widget, which needs helper installed first.
func widgetRegistry() *requirement.Registry {
	registry := requirement.NewEmptyRegistry()
	registry.Register(requirement.Requirement{
		Name:            "helper",
		Checks:          []requirement.Check{{Kind: requirement.CheckCommandSucceeds, Command: "helper --version"}},
		InstallTemplate: "helper",
		InstallCommand:  "install-helper",
	})
	registry.Register(requirement.Requirement{
		Name:            "widget",
		Checks:          []requirement.Check{{Kind: requirement.CheckCommandSucceeds, Command: "widget --version"}},
		InstallTemplate: "widget",
		InstallHint:     "Install widget by hand",
		InstallCommand:  "install-widget",
		DependsOn:       []string{"helper"},
	})
	return registry
}

func missingWidget() requirement.Gap {
	return requirement.Gap{Requirement: "widget", Status: requirement.Missing{
		InstallTemplate: "widget",
		InstallHint:     "Install widget by hand",
	}}
}

func TestHandleGaps_NoGaps(t *testing.T) {
	t.Parallel()

	checker := newChecker(requirement.NewEmptyRegistry(), nil, mocks.NewShell(), t.TempDir())
	ok, err := requirement.HandleGaps(context.Background(), nil, checker, mocks.NewUI(true), true, mocks.NewEffects(nil))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHandleGaps_InactiveInteractiveActivates(t *testing.T) {
	t.Parallel()

	checker := newChecker(requirement.NewEmptyRegistry(), nil, mocks.NewShell(), t.TempDir())
	binDir := filepath.Join(t.TempDir(), "homebrew", "bin")
	status := requirement.Inactive{Manager: "homebrew", BinaryPath: filepath.Join(binDir, "ruby")}
	checker.Cache().Put("ruby", status)

	ui := mocks.NewUI(true)
	effects := mocks.NewEffects(checker.SearchPath())
	ok, err := requirement.HandleGaps(context.Background(),
		[]requirement.Gap{{Requirement: "ruby", Status: status}}, checker, ui, true, effects)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{binDir}, effects.Prepends())
	assert.True(t, checker.SearchPath().Contains(binDir))
	_, cached := checker.Cache().Get("ruby")
	assert.False(t, cached)
	assert.Contains(t, ui.Messages(), "Activated ruby from homebrew for this run")
	assert.Empty(t, ui.Prompts())
}

func TestHandleGaps_InactiveNonInteractiveBlocks(t *testing.T) {
	t.Parallel()

	checker := newChecker(requirement.NewEmptyRegistry(), nil, mocks.NewShell(), t.TempDir())
	ui := mocks.NewUI(false)
	effects := mocks.NewEffects(checker.SearchPath())
	gap := requirement.Gap{Requirement: "ruby", Status: requirement.Inactive{
		Manager:        "rbenv",
		BinaryPath:     "/home/dev/.rbenv/versions/3.3.0/bin/ruby",
		ActivationHint: `eval "$(rbenv init -)"`,
	}}

	ok, err := requirement.HandleGaps(context.Background(), []requirement.Gap{gap}, checker, ui, false, effects)

	assert.False(t, ok)
	var missing *requirement.MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ruby"}, missing.Requirements)
	assert.Empty(t, effects.Prepends())
	assert.Zero(t, checker.SearchPath().Len())
	assert.Len(t, ui.Warnings(), 1)
}

func TestHandleGaps_ServiceDown(t *testing.T) {
	t.Parallel()

	down := requirement.ServiceDown{BinaryPresent: true, StartCommand: "brew services start redis", StartHint: "Start Redis"}

	tests := []struct {
		name        string
		interactive bool
		status      requirement.ServiceDown
		answer      *bool
		startOK     bool
		expectOK    bool
		expectErr   bool
		expectRuns  []string
	}{
		{name: "starts on confirmation", interactive: true, status: down, startOK: true, expectOK: true, expectRuns: []string{"brew services start redis"}},
		{name: "start command fails skips", interactive: true, status: down, expectRuns: []string{"brew services start redis"}},
		{name: "declined skips", interactive: true, status: down, answer: new(bool)},
		{name: "non-interactive blocks", status: down, startOK: true, expectErr: true},
		{name: "no start command skips", interactive: true, status: requirement.ServiceDown{StartHint: "Start Redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			checker := newChecker(requirement.NewEmptyRegistry(), nil, mocks.NewShell(), t.TempDir())
			ui := mocks.NewUI(tt.interactive)
			if tt.answer != nil {
				ui.Answer(requirement.PromptStartService+"redis-server", *tt.answer)
			}
			effects := mocks.NewEffects(nil).SetOutcome("brew services start redis", tt.startOK)

			ok, err := requirement.HandleGaps(context.Background(),
				[]requirement.Gap{{Requirement: "redis-server", Status: tt.status}}, checker, ui, tt.interactive, effects)

			assert.Equal(t, tt.expectOK, ok)
			if tt.expectErr {
				assert.ErrorIs(t, err, requirement.ErrRequirementsMissing)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectRuns, effects.Commands())
			if !tt.expectOK && !tt.expectErr {
				assert.Contains(t, ui.Warnings(), "Skipping: requirement 'redis-server' is not available.")
			}
		})
	}
}

func TestHandleGaps_InstallsDependenciesThenRequirement(t *testing.T) {
	t.Parallel()

	shell := mocks.NewShell().
		Fail("helper --version", 127, "").
		AddResult("widget --version", ports.ShellResult{ExitCode: 127}, ports.ShellResult{ExitCode: 0})
	checker := newChecker(widgetRegistry(), nil, shell, t.TempDir())
	ctx := context.Background()

	gaps := checker.CheckStep(ctx, []string{"widget"}, nil)
	require.Len(t, gaps, 1)
	require.Equal(t, requirement.KindMissing, gaps[0].Status.Kind())

	ui := mocks.NewUI(true)
	effects := mocks.NewEffects(nil).SetOutcome("install-helper", true).SetOutcome("install-widget", true)

	ok, err := requirement.HandleGaps(ctx, gaps, checker, ui, true, effects)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{
		requirement.PromptInstallDep + "helper",
		requirement.PromptInstall + "widget",
	}, ui.PromptKeys())
	assert.Equal(t, []string{"install-helper", "install-widget"}, effects.Commands())
	assert.Contains(t, ui.Messages(), "Installed widget")
}

func TestHandleGaps_InstallOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		configure   func(shell *mocks.Shell, ui *mocks.UI, effects *mocks.Effects)
		expectOK    bool
		expectErr   bool
		expectRuns  []string
		expectWarns []string
	}{
		{
			name: "declined dependency skips",
			configure: func(shell *mocks.Shell, ui *mocks.UI, _ *mocks.Effects) {
				shell.Fail("helper --version", 127, "")
				ui.Answer(requirement.PromptInstallDep+"helper", false)
			},
			expectWarns: []string{
				"Dependency 'helper' for 'widget' not installed.",
				"Skipping: requirement 'widget' is not available.",
			},
		},
		{
			name: "failed dependency install skips",
			configure: func(shell *mocks.Shell, _ *mocks.UI, _ *mocks.Effects) {
				shell.Fail("helper --version", 127, "")
			},
			expectRuns:  []string{"install-helper"},
			expectWarns: []string{"Skipping: requirement 'widget' is not available."},
		},
		{
			name: "declined install skips",
			configure: func(shell *mocks.Shell, ui *mocks.UI, _ *mocks.Effects) {
				shell.Succeed("helper --version", "")
				ui.Answer(requirement.PromptInstall+"widget", false)
			},
			expectWarns: []string{"Skipping: requirement 'widget' is not available."},
		},
		{
			name: "failed install skips",
			configure: func(shell *mocks.Shell, _ *mocks.UI, _ *mocks.Effects) {
				shell.Succeed("helper --version", "")
			},
			expectRuns:  []string{"install-widget"},
			expectWarns: []string{"Skipping: requirement 'widget' is not available."},
		},
		{
			name: "installed but not resolvable skips",
			configure: func(shell *mocks.Shell, _ *mocks.UI, effects *mocks.Effects) {
				shell.Succeed("helper --version", "").Fail("widget --version", 127, "")
				effects.SetOutcome("install-widget", true)
			},
			expectRuns: []string{"install-widget"},
			expectWarns: []string{
				"Installed 'widget' but it is not yet resolvable on PATH. You may need to restart your shell.",
				"Skipping: requirement 'widget' is not available.",
			},
		},
		{
			name: "no network skips",
			configure: func(_ *mocks.Shell, _ *mocks.UI, effects *mocks.Effects) {
				effects.SetNetwork(false)
			},
			expectWarns: []string{
				"Installation of 'widget' requires network access, which isn't available.",
				"Skipping: requirement 'widget' is not available.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			shell := mocks.NewShell()
			ui := mocks.NewUI(true)
			effects := mocks.NewEffects(nil)
			tt.configure(shell, ui, effects)
			checker := newChecker(widgetRegistry(), nil, shell, t.TempDir())

			ok, err := requirement.HandleGaps(context.Background(),
				[]requirement.Gap{missingWidget()}, checker, ui, true, effects)

			assert.Equal(t, tt.expectOK, ok)
			if tt.expectErr {
				assert.ErrorIs(t, err, requirement.ErrRequirementsMissing)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectRuns, effects.Commands())
			if tt.expectWarns != nil {
				assert.Equal(t, tt.expectWarns, ui.Warnings())
			}
		})
	}
}

func TestHandleGaps_MissingNonInteractiveFailsClosed(t *testing.T) {
	t.Parallel()

	checker := newChecker(widgetRegistry(), nil, mocks.NewShell(), t.TempDir())
	ui := mocks.NewUI(false)
	effects := mocks.NewEffects(nil)

	ok, err := requirement.HandleGaps(context.Background(),
		[]requirement.Gap{missingWidget()}, checker, ui, false, effects)

	assert.False(t, ok)
	assert.ErrorIs(t, err, requirement.ErrRequirementsMissing)
	assert.Empty(t, ui.Prompts())
	assert.Empty(t, effects.Commands())
	assert.Equal(t, []string{"Missing requirement 'widget'. Install widget by hand"}, ui.Warnings())
}

func TestHandleGaps_SystemOnly(t *testing.T) {
	t.Parallel()

	gap := requirement.Gap{Requirement: "widget", Status: requirement.SystemOnly{
		Path:            "/usr/bin/widget",
		InstallTemplate: "widget",
		Warning:         "System widget detected at /usr/bin/widget. Consider using a version manager.",
	}}

	t.Run("proceeds with a warning", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(widgetRegistry(), nil, mocks.NewShell(), t.TempDir())
		ui := mocks.NewUI(false)
		ok, err := requirement.HandleGaps(context.Background(), []requirement.Gap{gap}, checker, ui, false, mocks.NewEffects(nil))

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{gap.Status.(requirement.SystemOnly).Warning}, ui.Warnings())
	})

	t.Run("managed install is opt in", func(t *testing.T) {
		t.Parallel()

		checker := newChecker(widgetRegistry(), nil, mocks.NewShell(), t.TempDir())
		ui := mocks.NewUI(true)
		effects := mocks.NewEffects(nil)
		ok, err := requirement.HandleGaps(context.Background(), []requirement.Gap{gap}, checker, ui, true, effects)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{requirement.PromptManagedInstall + "widget"}, ui.PromptKeys())
		assert.False(t, ui.Prompts()[0].Default)
		assert.Empty(t, effects.Commands())
	})

	t.Run("accepting installs the managed version", func(t *testing.T) {
		t.Parallel()

		shell := mocks.NewShell().Succeed("helper --version", "").Succeed("widget --version", "")
		checker := newChecker(widgetRegistry(), nil, shell, t.TempDir())
		ui := mocks.NewUI(true).Answer(requirement.PromptManagedInstall+"widget", true)
		effects := mocks.NewEffects(nil).SetOutcome("install-widget", true)

		ok, err := requirement.HandleGaps(context.Background(), []requirement.Gap{gap}, checker, ui, true, effects)

		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{"install-widget"}, effects.Commands())
		assert.Contains(t, ui.Messages(), "Installed widget")
	})
}

func TestHandleGaps_AggregatesBlockedRequirements(t *testing.T) {
	t.Parallel()

	checker := newChecker(requirement.NewEmptyRegistry(), nil, mocks.NewShell(), t.TempDir())
	ui := mocks.NewUI(false)
	gaps := []requirement.Gap{
		{Requirement: "ghost", Status: requirement.Unknown{}},
		{Requirement: "docker", Status: requirement.Missing{InstallHint: "Install Docker Desktop"}},
		{Requirement: "rust", Status: requirement.SystemOnly{Warning: "System rust"}},
	}

	ok, err := requirement.HandleGaps(context.Background(), gaps, checker, ui, false, mocks.NewEffects(nil))

	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, requirement.ErrRequirementsMissing))
	assert.Equal(t, "missing requirements: ghost, docker. Run 'bivvy requirements' for details.", err.Error())
	assert.Len(t, ui.Errors(), 1)
	assert.Contains(t, ui.Warnings(), "Missing requirement 'docker'. Install Docker Desktop")
	assert.Contains(t, ui.Warnings(), "System rust")
}

func TestHandleGaps_SkipStopsImmediately(t *testing.T) {
	t.Parallel()

	shell := mocks.NewShell().Succeed("helper --version", "")
	checker := newChecker(widgetRegistry(), nil, shell, t.TempDir())
	ui := mocks.NewUI(true).Answer(requirement.PromptInstall+"widget", false)

	gaps := []requirement.Gap{
		missingWidget(),
		{Requirement: "ghost", Status: requirement.Unknown{}},
	}
	ok, err := requirement.HandleGaps(context.Background(), gaps, checker, ui, true, mocks.NewEffects(nil))

	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, ui.Errors())
}

func TestHandleGaps_MissingWithoutInstallSkipsInteractively(t *testing.T) {
	t.Parallel()

	checker := newChecker(requirement.NewEmptyRegistry(), nil, mocks.NewShell(), t.TempDir())
	ui := mocks.NewUI(true)
	effects := mocks.NewEffects(nil)
	gaps := []requirement.Gap{{Requirement: "docker", Status: requirement.Missing{InstallHint: "Install Docker Desktop"}}}

	ok, err := requirement.HandleGaps(context.Background(), gaps, checker, ui, true, effects)

	assert.False(t, ok)
	assert.NoError(t, err)
	assert.Empty(t, ui.Prompts())
	assert.Empty(t, effects.Commands())
	assert.Equal(t, []string{
		"Missing requirement 'docker'. Install Docker Desktop",
		"Skipping: requirement 'docker' is not available.",
	}, ui.Warnings())
}
