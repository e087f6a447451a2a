package app

import (
	"context"
	"sort"

	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
	"github.com/felixgeelhaar/bivvy/internal/domain/graph"
	"github.com/felixgeelhaar/bivvy/internal/domain/history"
	"github.com/felixgeelhaar/bivvy/internal/domain/requirement"
	"github.com/felixgeelhaar/bivvy/internal/domain/workflow"
)

// PlanOptions are the command-line choices of `bivvy plan`.
type PlanOptions struct {
	Workflow     string
	Environment  string
	Only         []string
	Skip         []string
	SkipBehavior string
	Force        []string
}

// Plan previews a run and prints it. Completion checks run; nothing else.
func (b *Bivvy) Plan(ctx context.Context, opts PlanOptions) (*workflow.Plan, error) {
	behavior, err := graph.ParseSkipBehavior(opts.SkipBehavior)
	if err != nil {
		return nil, err
	}
	runner := workflow.NewRunner(b.cfg, b.root, b.shell, b.display, workflow.WithLogger(b.logger))
	plan, err := runner.Plan(ctx, workflow.Options{
		Workflow:     opts.Workflow,
		Only:         opts.Only,
		Skip:         opts.Skip,
		SkipBehavior: behavior,
		Force:        opts.Force,
		Environment:  b.Environment(opts.Environment),
	})
	if err != nil {
		return nil, err
	}
	b.report().Plan(plan)
	return plan, nil
}

// List prints the workflows and steps of the project.
func (b *Bivvy) List() {
	b.report().List(b.cfg)
}

// RequirementReport is the status of one requirement referenced by steps.
type RequirementReport struct {
	Name string
	// Steps are the steps that require it, sorted.
	Steps []string
	// Provided is set when the active environment supplies the requirement;
	// Status is nil then.
	Provided bool
	Status   requirement.Status
}

// Requirements checks every requirement referenced by a step in the active
// environment and prints the result. Nothing is installed or started.
func (b *Bivvy) Requirements(ctx context.Context, envFlag string) ([]RequirementReport, error) {
	env := b.Environment(envFlag)
	provided := env.Provided()

	users := make(map[string][]string)
	for name, sc := range b.cfg.Steps {
		step := execution.ResolveStep(name, sc, env.Name, nil)
		if !step.RunsIn(env.Name) {
			continue
		}
		for _, req := range step.Requires {
			users[req] = append(users[req], name)
		}
	}

	names := make([]string, 0, len(users))
	for name := range users {
		names = append(names, name)
	}
	sort.Strings(names)

	checker := b.requirementChecker(ctx)
	reports := make([]RequirementReport, 0, len(names))
	for _, name := range names {
		steps := users[name]
		sort.Strings(steps)
		rep := RequirementReport{Name: name, Steps: steps, Provided: provided[name]}
		if !rep.Provided {
			rep.Status = checker.CheckOne(ctx, name)
		}
		reports = append(reports, rep)
	}

	b.report().Requirements(env, reports)
	return reports, nil
}

// History prints up to limit recorded runs, newest first.
func (b *Bivvy) History(ctx context.Context, limit int) ([]history.Record, error) {
	records, err := b.history.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	b.report().History(records)
	return records, nil
}
