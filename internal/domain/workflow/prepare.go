package workflow

import (
	"fmt"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/execution"
	"github.com/felixgeelhaar/bivvy/internal/domain/graph"
)

// prepared is a workflow resolved for one environment and ordered.
// Excluded steps do not run in the active environment and are absent from
// the graph.
type prepared struct {
	name        string
	environment string
	workflow    config.WorkflowConfig
	steps       map[string]execution.Step
	excluded    graph.Set
	graph       *graph.Graph
	skipped     graph.Set
	order       []string
	toRun       []string
}

func (r *Runner) prepare(opts Options) (*prepared, error) {
	name := opts.Workflow
	if name == "" {
		name = opts.Environment.DefaultWorkflow()
	}
	wf, err := r.cfg.Workflow(name)
	if err != nil {
		return nil, err
	}

	env := opts.Environment.Name
	p := &prepared{
		name:        name,
		environment: env,
		workflow:    wf,
		steps:       make(map[string]execution.Step, len(wf.Steps)),
		excluded:    graph.NewSet(),
	}

	for _, stepName := range wf.Steps {
		sc, ok := r.cfg.Steps[stepName]
		if !ok {
			return nil, config.NewUnknownStepError(fmt.Sprintf("workflow %q", name), stepName)
		}
		var override *config.StepOverride
		if o, ok := wf.Overrides[stepName]; ok {
			override = &o
		}
		step := execution.ResolveStep(stepName, sc, env, override)
		if !step.RunsIn(env) {
			p.excluded.Add(stepName)
			continue
		}
		p.steps[stepName] = step
	}

	nodes := make([]graph.Node, 0, len(p.steps))
	for _, stepName := range wf.Steps {
		step, ok := p.steps[stepName]
		if !ok {
			continue
		}
		deps := make([]string, 0, len(step.DependsOn))
		for _, dep := range step.DependsOn {
			if !p.excluded.Has(dep) {
				deps = append(deps, dep)
			}
		}
		nodes = append(nodes, graph.Node{Name: stepName, DependsOn: deps})
	}

	g, err := graph.Build(nodes)
	if err != nil {
		return nil, err
	}
	p.graph = g
	p.skipped = g.ComputeSkips(opts.Skip, opts.SkipBehavior)

	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	p.order = order

	only := graph.NewSet(opts.Only...)
	for _, stepName := range order {
		if p.skipped.Has(stepName) {
			continue
		}
		if len(only) > 0 && !only.Has(stepName) {
			continue
		}
		p.toRun = append(p.toRun, stepName)
	}
	return p, nil
}
