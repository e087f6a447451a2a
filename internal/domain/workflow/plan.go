package workflow

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/bivvy/internal/domain/check"
	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
)

// PlanStatus is what a run would do with a step.
type PlanStatus int

const (
	PlanRun PlanStatus = iota
	PlanComplete
	PlanSkipped
	PlanFiltered
)

func (s PlanStatus) String() string {
	switch s {
	case PlanRun:
		return "run"
	case PlanComplete:
		return "complete"
	case PlanSkipped:
		return "skipped"
	case PlanFiltered:
		return "filtered"
	default:
		return fmt.Sprintf("PlanStatus(%d)", int(s))
	}
}

// PlanEntry represents a single step's planned execution.
type PlanEntry struct {
	step   execution.Step
	status PlanStatus
	check  *check.Result
}

// Step returns the resolved step.
func (e PlanEntry) Step() execution.Step {
	return e.step
}

// Status returns what the run would do.
func (e PlanEntry) Status() PlanStatus {
	return e.status
}

// Check returns the completion check outcome, if the step has one.
func (e PlanEntry) Check() *check.Result {
	return e.check
}

// PlanSummary provides aggregate statistics about a plan.
type PlanSummary struct {
	Total    int
	Run      int
	Complete int
	Skipped  int
	Filtered int
}

// Plan is the ordered preview of a run.
type Plan struct {
	Workflow    string
	Environment string
	// Excluded lists steps that do not run in the environment.
	Excluded []string
	// Groups are the dependency waves of the ordered steps.
	Groups  [][]string
	entries []PlanEntry
}

// Entries returns all plan entries in execution order.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// Order returns the step names in execution order.
func (p *Plan) Order() []string {
	names := make([]string, len(p.entries))
	for i, e := range p.entries {
		names[i] = e.step.Name
	}
	return names
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case PlanRun:
			summary.Run++
		case PlanComplete:
			summary.Complete++
		case PlanSkipped:
			summary.Skipped++
		case PlanFiltered:
			summary.Filtered++
		}
	}
	return summary
}

// Plan previews a run without prompting or running step commands.
// Completion checks do run, since command checks are expected to be
// read-only.
func (r *Runner) Plan(ctx context.Context, opts Options) (*Plan, error) {
	p, err := r.prepare(opts)
	if err != nil {
		return nil, err
	}
	groups, err := p.graph.ParallelGroups()
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Workflow:    p.name,
		Environment: p.environment,
		Excluded:    p.excluded.Sorted(),
		Groups:      groups,
	}

	willRun := make(map[string]bool, len(p.toRun))
	for _, name := range p.toRun {
		willRun[name] = true
	}
	forced := make(map[string]bool, len(opts.Force))
	for _, name := range opts.Force {
		forced[name] = true
	}

	for _, name := range p.order {
		step := p.steps[name]
		entry := PlanEntry{step: step, status: PlanRun}
		switch {
		case p.skipped.Has(name):
			entry.status = PlanSkipped
		case !willRun[name]:
			entry.status = PlanFiltered
		case step.CompletedCheck != nil && !forced[name]:
			res := r.checks.Run(ctx, *step.CompletedCheck, r.root)
			entry.check = &res
			if res.Complete {
				entry.status = PlanComplete
			}
		}
		plan.entries = append(plan.entries, entry)
	}
	return plan, nil
}
