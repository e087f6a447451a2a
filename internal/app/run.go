package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/bivvy/internal/adapters/system"
	"github.com/felixgeelhaar/bivvy/internal/domain/graph"
	"github.com/felixgeelhaar/bivvy/internal/domain/history"
	"github.com/felixgeelhaar/bivvy/internal/domain/requirement"
	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// ErrRunFailed is returned by Run when a step failed and the run stopped.
var ErrRunFailed = errors.New("workflow failed")

// RunOptions are the command-line choices of `bivvy run`.
type RunOptions struct {
	Workflow     string
	Environment  string
	Only         []string
	Skip         []string
	SkipBehavior string
	Force        []string
	DryRun       bool
}

// Run executes a workflow, records it in the history and prints a summary.
func (b *Bivvy) Run(ctx context.Context, opts RunOptions) (*workflow.Result, error) {
	started := b.now()

	behavior, err := graph.ParseSkipBehavior(opts.SkipBehavior)
	if err != nil {
		return nil, err
	}
	env := b.Environment(opts.Environment)
	workflowName := opts.Workflow
	if workflowName == "" {
		workflowName = env.DefaultWorkflow()
	}

	logger := b.logger.With(ports.F("workflow", workflowName), ports.F("environment", env.Name))
	ctx = ports.ContextWithLogger(ctx, logger)
	logger.Info(ctx, "starting run", ports.F("environment_source", env.Source.String()), ports.F("dry_run", opts.DryRun))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	display := interruptible{Display: b.display, cancel: cancel}

	checker := b.requirementChecker(ctx)
	runner := workflow.NewRunner(b.cfg, b.root, b.shell, display,
		workflow.WithRequirements(checker, b.newEffects(checker)),
		workflow.WithProgress(b.display.Progress),
		workflow.WithOutput(b.display.StepOutput),
		workflow.WithLogger(logger),
	)

	result, runErr := runner.Run(ctx, workflow.Options{
		Workflow:     workflowName,
		Only:         opts.Only,
		Skip:         opts.Skip,
		SkipBehavior: behavior,
		Force:        opts.Force,
		DryRun:       opts.DryRun,
		Environment:  env,
	})
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(runErr, context.Canceled) {
		runErr = fmt.Errorf("run interrupted: %w", ctxErr)
	}

	if !opts.DryRun {
		b.record(ctx, history.NewRecord(started, workflowName, result, runErr))
	}
	if result != nil {
		b.report().Summary(result)
	}
	if runErr != nil {
		logger.Error(ctx, "run aborted", ports.F("error", runErr))
		return result, runErr
	}
	if !result.Success {
		logger.Warn(ctx, "run failed", ports.F("duration", result.Duration))
		return result, fmt.Errorf("%w: %s", ErrRunFailed, result.Workflow)
	}
	logger.Info(ctx, "run finished", ports.F("duration", result.Duration))
	return result, nil
}

// requirementChecker probes the environment and builds a checker with a
// fresh cache and an empty search path for one run.
func (b *Bivvy) requirementChecker(ctx context.Context) *requirement.Checker {
	registry := requirement.NewRegistry(b.platform)
	registry.RegisterCustom(b.cfg.Requirements)

	return requirement.NewChecker(registry, b.prober.Probe(ctx), b.shell, b.root,
		requirement.WithProber(b.prober),
		requirement.WithPlatform(b.platform),
		requirement.WithLogger(b.logger),
	)
}

func (b *Bivvy) newEffects(checker *requirement.Checker) ports.Effects {
	if b.effects != nil {
		return b.effects(checker.SearchPath())
	}
	return system.NewEffects(b.shell, b.root, checker.SearchPath(),
		system.WithOutput(func(line ports.OutputLine) { b.display.StepOutput("", line) }),
		system.WithLogger(b.logger),
	)
}

// record stores a history entry. History is best effort: a failure is
// logged and the run's own outcome stands.
func (b *Bivvy) record(ctx context.Context, rec history.Record) {
	saved, err := b.history.Append(ctx, rec)
	if err != nil {
		b.logger.Warn(ctx, "could not record run history", ports.F("error", err))
		return
	}
	b.logger.Debug(ctx, "run recorded", ports.F("id", saved.ID), ports.F("status", string(saved.Status)))
}

// interruptible cancels the run when the user aborts a prompt, so the
// runner stops before the next step instead of treating it as a "no".
type interruptible struct {
	Display
	cancel context.CancelFunc
}

func (d interruptible) Confirm(ctx context.Context, prompt ports.Prompt) (bool, error) {
	yes, err := d.Display.Confirm(ctx, prompt)
	if errors.Is(err, context.Canceled) {
		d.cancel()
	}
	return yes, err
}
