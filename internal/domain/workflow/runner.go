// Package workflow runs a configured workflow: it orders the steps, decides
// which ones to skip, remediates missing requirements and executes the
// rest one at a time.
package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/domain/check"
	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/environment"
	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
	"github.com/felixgeelhaar/bivvy/internal/domain/graph"
	"github.com/felixgeelhaar/bivvy/internal/domain/interpolate"
	"github.com/felixgeelhaar/bivvy/internal/domain/requirement"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Prompt keys, suffixed with the step name.
const (
	PromptRerun     = "step.rerun."
	PromptSensitive = "step.sensitive."
)

// Skip reasons recorded on skipped results.
const (
	ReasonComplete     = "already complete"
	ReasonDeclined     = "declined"
	ReasonRequirements = "requirements not available"
)

// Options select what a run does.
type Options struct {
	// Workflow defaults to the environment's default workflow.
	Workflow     string
	Only         []string
	Skip         []string
	SkipBehavior graph.SkipBehavior
	Force        []string
	DryRun       bool
	Environment  environment.Resolved
}

// Result is the outcome of a run.
type Result struct {
	Workflow    string
	Environment string
	Steps       []execution.StepResult
	Skipped     []string
	Duration    time.Duration
	Success     bool
}

// Runner executes workflows of one project.
type Runner struct {
	cfg          *config.Config
	root         string
	ui           ports.UserInterface
	executor     *execution.Executor
	checks       *check.Checker
	requirements *requirement.Checker
	effects      ports.Effects
	progress     func(Event)
	logger       ports.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithRequirements enables requirement checks and remediation.
func WithRequirements(checker *requirement.Checker, effects ports.Effects) Option {
	return func(r *Runner) {
		r.requirements = checker
		r.effects = effects
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn func(Event)) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithOutput streams command output to fn.
func WithOutput(fn execution.OutputFunc) Option {
	return func(r *Runner) { r.executor = r.executor.WithOutput(fn) }
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
		r.executor = r.executor.WithLogger(logger)
	}
}

// NewRunner creates a Runner for the project at root.
func NewRunner(cfg *config.Config, root string, shell ports.ShellRunner, ui ports.UserInterface, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		root:     root,
		ui:       ui,
		executor: execution.NewExecutor(shell, root),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.checks = check.NewChecker(shell, check.WithSearchPath(r.searchPath))
	return r
}

// Run executes a workflow. Step failures are reported in the result; the
// error is reserved for problems that prevent the run, such as an unknown
// workflow, a dependency cycle or declining a sensitive step that cannot
// be skipped.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	p, err := r.prepare(opts)
	if err != nil {
		return nil, err
	}
	rc, err := r.runContext(p)
	if err != nil {
		return nil, err
	}
	interactive := r.interactive(p.workflow)
	forced := graph.NewSet(opts.Force...)

	result := &Result{
		Workflow:    p.name,
		Environment: opts.Environment.Name,
		Skipped:     p.skipped.Sorted(),
		Success:     true,
	}
	for _, name := range result.Skipped {
		r.emit(Event{Kind: EventStepSkipped, Step: name})
	}

	r.log(ctx, "running workflow", ports.F("workflow", p.name), ports.F("steps", len(p.toRun)), ports.F("interactive", interactive))

	for i, name := range p.toRun {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.Duration = time.Since(start)
			return result, err
		}

		step := p.steps[name]
		r.emit(Event{Kind: EventStepStarting, Step: name, Index: i, Total: len(p.toRun)})

		sr, err := r.runStep(ctx, step, rc, opts, interactive, forced.Has(name))
		if err != nil {
			result.Success = false
			result.Duration = time.Since(start)
			return result, err
		}

		result.Steps = append(result.Steps, sr)
		if sr.Skipped() {
			result.Skipped = append(result.Skipped, name)
		}
		r.emit(Event{Kind: EventStepFinished, Step: name, Index: i, Total: len(p.toRun), Result: &sr})

		if !sr.Acceptable() {
			result.Success = false
			r.log(ctx, "stopping after failed step", ports.F("step", name))
			break
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, step execution.Step, rc execution.RunContext, opts Options, interactive, forced bool) (execution.StepResult, error) {
	if !forced && step.CompletedCheck != nil {
		res := r.checks.Run(ctx, *step.CompletedCheck, r.root)
		if res.Complete {
			rerun := false
			if interactive && step.PromptIfComplete && !opts.DryRun {
				question := fmt.Sprintf("%s is already complete (%s). Re-run?", step.DisplayName(), res.Description)
				rerun = r.confirm(ctx, PromptRerun+step.Name, question, false)
			}
			if !rerun {
				return execution.NewSkippedResult(step.Name, ReasonComplete).WithCheckResult(res), nil
			}
		}
	}

	if step.Sensitive && interactive && !opts.DryRun {
		question := fmt.Sprintf("%s is marked sensitive. Continue?", step.DisplayName())
		if !r.confirm(ctx, PromptSensitive+step.Name, question, false) {
			if step.Skippable {
				return execution.NewSkippedResult(step.Name, ReasonDeclined), nil
			}
			return execution.StepResult{}, newDeclinedError(step.Name)
		}
	}

	if r.requirements != nil && len(step.Requires) > 0 {
		gaps := r.requirements.CheckStep(ctx, step.Requires, opts.Environment.Provided())
		if len(gaps) > 0 {
			if opts.DryRun {
				for _, gap := range gaps {
					r.ui.Warning(fmt.Sprintf("Requirement '%s': %s", gap.Requirement, requirement.Describe(gap.Status)))
				}
			} else {
				ok, err := requirement.HandleGaps(ctx, gaps, r.requirements, r.ui, interactive, r.effects)
				if err != nil {
					return r.allowFailure(step, execution.NewStepResult(step.Name, execution.StatusFailed, err)), nil
				}
				if !ok {
					return execution.NewSkippedResult(step.Name, ReasonRequirements), nil
				}
			}
		}
	}

	rc.SearchPath = r.searchPath()
	return r.allowFailure(step, r.executor.WithDryRun(opts.DryRun).Execute(ctx, step, rc)), nil
}

func (r *Runner) allowFailure(step execution.Step, sr execution.StepResult) execution.StepResult {
	if sr.Failed() && step.AllowFailure {
		return sr.WithAllowedFailure()
	}
	return sr
}

// runContext builds the variables and environment shared by every step.
func (r *Runner) runContext(p *prepared) (execution.RunContext, error) {
	settingsFile, err := config.LoadEnvFile(r.root, r.cfg.Settings.EnvFile)
	if err != nil {
		return execution.RunContext{}, err
	}
	workflowFile, err := config.LoadEnvFile(r.root, p.workflow.EnvFile)
	if err != nil {
		return execution.RunContext{}, err
	}

	vars := interpolate.NewContext(map[string]string{
		"project_root": r.root,
		"project_name": r.projectName(),
		"environment":  p.environment,
		"workflow":     p.name,
	})
	return execution.RunContext{
		Vars: vars,
		Env:  config.MergeEnv(r.cfg.Settings.Env, settingsFile, p.workflow.Env, workflowFile),
	}, nil
}

func (r *Runner) projectName() string {
	if r.cfg.AppName != "" {
		return r.cfg.AppName
	}
	return filepath.Base(r.root)
}

// interactive is false when the UI cannot prompt or the project or
// workflow asks for unattended runs.
func (r *Runner) interactive(wf config.WorkflowConfig) bool {
	return r.ui.IsInteractive() && !r.cfg.Settings.NonInteractive && !wf.Settings.NonInteractive
}

// searchPath is the effective PATH for commands. It is nil, inheriting the
// process PATH, until a requirement has been activated.
func (r *Runner) searchPath() []string {
	if r.requirements == nil || r.requirements.SearchPath().Len() == 0 {
		return nil
	}
	return r.requirements.ActivePath()
}

func (r *Runner) confirm(ctx context.Context, key, question string, def bool) bool {
	yes, err := r.ui.Confirm(ctx, ports.Prompt{Key: key, Question: question, Default: def})
	return err == nil && yes
}

func (r *Runner) emit(e Event) {
	if r.progress != nil {
		r.progress(e)
	}
}

func (r *Runner) log(ctx context.Context, msg string, fields ...ports.Field) {
	if r.logger != nil {
		r.logger.Info(ctx, msg, fields...)
	}
}
