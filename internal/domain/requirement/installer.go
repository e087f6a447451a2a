package requirement

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Outcome is the result of handling one gap.
type Outcome int

const (
	// OutcomeResolved means the gap was fixed.
	OutcomeResolved Outcome = iota
	// OutcomeCanProceed means the step may run despite the gap.
	OutcomeCanProceed
	// OutcomeSkip abandons the step without an error.
	OutcomeSkip
	// OutcomeBlocked is reported in the aggregate error.
	OutcomeBlocked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeCanProceed:
		return "can-proceed"
	case OutcomeSkip:
		return "skip"
	case OutcomeBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Prompt keys, suffixed with the requirement name.
const (
	PromptStartService   = "requirement.start."
	PromptInstall        = "requirement.install."
	PromptInstallDep     = "requirement.install_dependency."
	PromptManagedInstall = "requirement.managed_install."
)

const defaultInstallHint = "Install manually"

// HandleGaps remediates gaps in order. It returns true when the step may
// run. A Skip outcome stops immediately and returns false without error.
// Blocked gaps are collected and reported together as a *MissingError once
// every gap has been attempted.
//
// Without interaction nothing is installed or started, and inactive
// managers are not auto-activated; only SystemOnly gaps let the step run.
func HandleGaps(ctx context.Context, gaps []Gap, checker *Checker, ui ports.UserInterface, interactive bool, effects ports.Effects) (bool, error) {
	h := &gapHandler{checker: checker, ui: ui, interactive: interactive, effects: effects}

	var blocked []string
	for _, gap := range gaps {
		switch h.handle(ctx, gap) {
		case OutcomeSkip:
			h.ui.Warning(fmt.Sprintf("Skipping: requirement '%s' is not available.", gap.Requirement))
			return false, nil
		case OutcomeBlocked:
			blocked = append(blocked, gap.Requirement)
		}
	}

	if len(blocked) > 0 {
		return false, &MissingError{Requirements: blocked}
	}
	return true, nil
}

type gapHandler struct {
	checker     *Checker
	ui          ports.UserInterface
	interactive bool
	effects     ports.Effects
}

func (h *gapHandler) handle(ctx context.Context, gap Gap) Outcome {
	name := gap.Requirement

	switch st := gap.Status.(type) {
	case Satisfied:
		return OutcomeResolved

	case Inactive:
		if !h.interactive {
			h.ui.Warning(fmt.Sprintf("'%s' found via %s but not activated. %s", name, st.Manager, st.ActivationHint))
			return OutcomeBlocked
		}
		h.effects.PrependPath(filepath.Dir(st.BinaryPath))
		h.checker.Invalidate(name)
		h.ui.Message(fmt.Sprintf("Activated %s from %s for this run", name, st.Manager))
		return OutcomeResolved

	case ServiceDown:
		return h.startService(ctx, name, st)

	case Missing:
		return h.install(ctx, name, st.InstallTemplate, st.InstallHint, true)

	case SystemOnly:
		h.ui.Warning(st.Warning)
		if h.interactive && st.InstallTemplate != "" {
			yes := h.confirm(ctx, PromptManagedInstall+name, fmt.Sprintf("Install a managed version of %s?", name), false)
			if yes && h.install(ctx, name, st.InstallTemplate, "", false) == OutcomeResolved {
				return OutcomeResolved
			}
		}
		return OutcomeCanProceed

	case Unknown:
		h.ui.Error(fmt.Sprintf("Unknown requirement '%s'. Define it under 'requirements' or fix the step's requires list.", name))
		return OutcomeBlocked

	default:
		return OutcomeBlocked
	}
}

func (h *gapHandler) startService(ctx context.Context, name string, st ServiceDown) Outcome {
	notRunning := fmt.Sprintf("Service '%s' is not running. %s", name, st.StartHint)
	if !h.interactive {
		h.ui.Warning(notRunning)
		return OutcomeBlocked
	}
	if st.StartCommand == "" {
		h.ui.Warning(notRunning)
		return OutcomeSkip
	}

	question := fmt.Sprintf("Start %s? (%s)", name, st.StartCommand)
	if !h.confirm(ctx, PromptStartService+name, question, true) {
		h.ui.Warning(notRunning)
		return OutcomeSkip
	}

	if !h.effects.RunCommand(ctx, st.StartCommand, h.checker.LookupPath()) {
		h.ui.Error(fmt.Sprintf("Failed to start '%s'. %s", name, st.StartHint))
		return OutcomeSkip
	}
	h.checker.Invalidate(name)
	return OutcomeResolved
}

// install runs the managed install flow for name. withHint controls
// whether a missing install path surfaces the hint. Without interaction
// the gap blocks; with it, anything short of a working install skips the
// step.
func (h *gapHandler) install(ctx context.Context, name, template, hint string, withHint bool) Outcome {
	if hint == "" {
		hint = defaultInstallHint
	}
	if template == "" || !h.interactive {
		if withHint {
			h.ui.Warning(fmt.Sprintf("Missing requirement '%s'. %s", name, hint))
		}
		if !h.interactive {
			return OutcomeBlocked
		}
		return OutcomeSkip
	}

	if !h.effects.NetworkAvailable(ctx) {
		h.ui.Warning(fmt.Sprintf("Installation of '%s' requires network access, which isn't available.", name))
		return OutcomeSkip
	}

	chain, err := h.checker.ResolveInstallDeps(name)
	if err != nil {
		h.ui.Warning(fmt.Sprintf("Could not resolve install dependencies for '%s': %v", name, err))
		chain = []string{name}
	}

	for _, dep := range chain[:len(chain)-1] {
		if IsSatisfied(h.checker.CheckOne(ctx, dep)) {
			continue
		}
		if !h.confirm(ctx, PromptInstallDep+dep, fmt.Sprintf("Install dependency '%s'?", dep), true) {
			h.ui.Warning(fmt.Sprintf("Dependency '%s' for '%s' not installed.", dep, name))
			return OutcomeSkip
		}
		if !h.runInstall(ctx, dep, chain) {
			return OutcomeSkip
		}
	}

	if !h.confirm(ctx, PromptInstall+name, fmt.Sprintf("Install %s?", name), true) {
		return OutcomeSkip
	}
	if !h.runInstall(ctx, name, chain) {
		return OutcomeSkip
	}

	status := h.checker.CheckOne(ctx, name)
	if CanProceed(status) {
		h.ui.Message(fmt.Sprintf("Installed %s", name))
		return OutcomeResolved
	}
	h.ui.Warning(fmt.Sprintf("Installed '%s' but it is not yet resolvable on PATH. You may need to restart your shell.", name))
	return OutcomeSkip
}

// runInstall runs the install command of name, then refreshes the probe
// and invalidates its cached status.
func (h *gapHandler) runInstall(ctx context.Context, name string, chain []string) bool {
	command := ""
	if req, ok := h.checker.Registry().Get(name); ok {
		command = req.installCommandFor(chain)
	}
	if command == "" {
		h.ui.Error(fmt.Sprintf("No install command known for '%s'.", name))
		return false
	}

	if !h.effects.RunCommand(ctx, command, h.checker.LookupPath()) {
		h.ui.Error(fmt.Sprintf("Installation of '%s' failed. Check output above.", name))
		return false
	}
	h.checker.Refresh(ctx)
	h.checker.Invalidate(name)
	return true
}

func (h *gapHandler) confirm(ctx context.Context, key, question string, def bool) bool {
	yes, err := h.ui.Confirm(ctx, ports.Prompt{Key: key, Question: question, Default: def})
	return err == nil && yes
}
