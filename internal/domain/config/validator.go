package config

import (
	"fmt"

	"github.com/felixgeelhaar/bivvy/internal/domain/graph"
)

// Validator checks a Config for reference and shape defects before
// anything runs.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns every defect found; the list is empty for a valid config.
func (v *Validator) Validate(cfg *Config) *ErrorList {
	errs := NewErrorList()

	if cfg.Settings.HistoryRetention < 0 {
		errs.Add(&UserError{Code: ErrCodeValidationFailed, Message: "history_retention must not be negative", Context: "settings"})
	}

	for _, name := range cfg.StepNames() {
		step := cfg.Steps[name]
		field := "steps." + name

		for _, dep := range step.DependsOn {
			switch {
			case dep == name:
				errs.Add(&UserError{
					Code:       ErrCodeCircularReference,
					Message:    "step depends on itself",
					Context:    field,
					Suggestion: "Remove the step from its own depends_on list.",
				})
			case !hasStep(cfg, dep):
				errs.Add(&UserError{
					Code:       ErrCodeUnknownDependency,
					Message:    fmt.Sprintf("depends on unknown step %q", dep),
					Context:    field,
					Suggestion: "Define the dependency under 'steps' or remove it.",
				})
			}
		}

		if step.Retry < 0 {
			errs.Add(&UserError{Code: ErrCodeValidationFailed, Message: "retry must not be negative", Context: field})
		}
		if step.CompletedCheck != nil {
			v.validateCheck(errs, field+".completed_check", *step.CompletedCheck)
		}
		for envName, override := range step.Environments {
			if override.CompletedCheck != nil {
				v.validateCheck(errs, fmt.Sprintf("%s.environments.%s.completed_check", field, envName), *override.CompletedCheck)
			}
		}
	}

	for _, name := range cfg.WorkflowNames() {
		wf := cfg.Workflows[name]
		field := "workflows." + name
		for _, step := range wf.Steps {
			if !hasStep(cfg, step) {
				errs.Add(NewUnknownStepError(field, step))
			}
		}
		for _, step := range sortedKeys(wf.Overrides) {
			if !hasStep(cfg, step) {
				errs.Add(NewUnknownStepError(field+".overrides", step))
			}
		}
	}

	for _, name := range sortedKeys(cfg.Requirements) {
		v.validateRequirement(errs, "requirements."+name, cfg.Requirements[name])
	}

	if cycle := findCycle(cfg); len(cycle) > 0 {
		errs.Add(NewCircularDependencyError(cycle))
	}

	return errs
}

func (v *Validator) validateCheck(errs *ErrorList, field string, check CompletedCheck) {
	invalid := func(msg string) {
		errs.Add(&UserError{Code: ErrCodeInvalidCheck, Message: msg, Context: field})
	}

	switch check.Type {
	case CheckFileExists:
		if check.Path == "" {
			invalid("file_exists check needs a path")
		}
	case CheckCommandSucceeds:
		if check.Command == "" {
			invalid("command_succeeds check needs a command")
		}
	case CheckMarker:
	case CheckAll, CheckAny:
		if len(check.Checks) == 0 {
			invalid(check.Type + " check needs at least one nested check")
		}
		for i, nested := range check.Checks {
			v.validateCheck(errs, fmt.Sprintf("%s.checks[%d]", field, i), nested)
		}
	default:
		errs.Add(&UserError{
			Code:       ErrCodeInvalidCheck,
			Message:    fmt.Sprintf("unknown check type %q", check.Type),
			Context:    field,
			Suggestion: "Use one of: file_exists, command_succeeds, marker, all, any.",
		})
	}
}

func (v *Validator) validateRequirement(errs *ErrorList, field string, req RequirementConfig) {
	switch req.Check.Type {
	case RequirementCommandSucceeds, RequirementServiceReachable:
		if req.Check.Command == "" {
			errs.Add(&UserError{Code: ErrCodeInvalidCheck, Message: req.Check.Type + " check needs a command", Context: field})
		}
	case RequirementFileExists:
		if req.Check.Path == "" {
			errs.Add(&UserError{Code: ErrCodeInvalidCheck, Message: "file_exists check needs a path", Context: field})
		}
	default:
		errs.Add(&UserError{
			Code:       ErrCodeInvalidCheck,
			Message:    fmt.Sprintf("unknown requirement check type %q", req.Check.Type),
			Context:    field,
			Suggestion: "Use one of: command_succeeds, file_exists, service_reachable.",
		})
	}
}

func hasStep(cfg *Config, name string) bool {
	_, ok := cfg.Steps[name]
	return ok
}

// findCycle builds a graph over the known edges only, so unknown
// dependencies are reported once, by their own error.
func findCycle(cfg *Config) []string {
	nodes := make([]graph.Node, 0, len(cfg.Steps))
	for _, name := range cfg.StepNames() {
		var deps []string
		for _, dep := range cfg.Steps[name].DependsOn {
			if dep != name && hasStep(cfg, dep) {
				deps = append(deps, dep)
			}
		}
		nodes = append(nodes, graph.Node{Name: name, DependsOn: deps})
	}
	g, err := graph.Build(nodes)
	if err != nil {
		return nil
	}
	return g.FindCycle()
}
