// Package execution resolves configured steps into their effective form
// and runs them through the shell.
package execution

import (
	"github.com/felixgeelhaar/bivvy/internal/domain/config"
)

// Step is a configured step after environment and workflow overrides.
type Step struct {
	Name             string
	Title            string
	Description      string
	Command          string
	DependsOn        []string
	CompletedCheck   *config.CompletedCheck
	Skippable        bool
	Required         bool
	PromptIfComplete bool
	AllowFailure     bool
	Retry            int
	Env              map[string]string
	EnvFile          string
	Before           []string
	After            []string
	Sensitive        bool
	Requires         []string
	OnlyEnvironments []string
}

// ResolveStep applies the override for environment, then the workflow
// override. Either may be absent.
func ResolveStep(name string, sc config.StepConfig, environment string, override *config.StepOverride) Step {
	s := Step{
		Name:             name,
		Title:            sc.Title,
		Description:      sc.Description,
		Command:          sc.Command,
		DependsOn:        append([]string(nil), sc.DependsOn...),
		CompletedCheck:   sc.CompletedCheck,
		Skippable:        sc.IsSkippable(),
		Required:         sc.Required,
		PromptIfComplete: sc.ShouldPromptIfComplete(),
		AllowFailure:     sc.AllowFailure,
		Retry:            sc.Retry,
		Env:              config.MergeEnv(sc.Env),
		EnvFile:          sc.EnvFile,
		Before:           append([]string(nil), sc.Before...),
		After:            append([]string(nil), sc.After...),
		Sensitive:        sc.Sensitive,
		Requires:         append([]string(nil), sc.Requires...),
		OnlyEnvironments: append([]string(nil), sc.OnlyEnvironments...),
	}

	if eo, ok := sc.Environments[environment]; ok {
		s.applyEnvironment(eo)
	}
	if override != nil {
		if override.SkipPrompt {
			s.PromptIfComplete = false
		}
		if override.PromptIfComplete != nil {
			s.PromptIfComplete = *override.PromptIfComplete
		}
		if override.Required != nil {
			s.Required = *override.Required
		}
	}
	return s
}

func (s *Step) applyEnvironment(eo config.StepEnvOverride) {
	setString(&s.Title, eo.Title)
	setString(&s.Description, eo.Description)
	setString(&s.Command, eo.Command)
	setBool(&s.Skippable, eo.Skippable)
	setBool(&s.Required, eo.Required)
	setBool(&s.AllowFailure, eo.AllowFailure)
	setBool(&s.Sensitive, eo.Sensitive)
	if eo.Retry != nil {
		s.Retry = *eo.Retry
	}
	if eo.CompletedCheck != nil {
		s.CompletedCheck = eo.CompletedCheck
	}
	if eo.DependsOn != nil {
		s.DependsOn = append([]string(nil), eo.DependsOn...)
	}
	if eo.Before != nil {
		s.Before = append([]string(nil), eo.Before...)
	}
	if eo.After != nil {
		s.After = append([]string(nil), eo.After...)
	}
	if eo.Requires != nil {
		s.Requires = append([]string(nil), eo.Requires...)
	}
	for k, v := range eo.Env {
		if v == nil {
			delete(s.Env, k)
			continue
		}
		s.Env[k] = *v
	}
}

// RunsIn reports whether the step participates in environment.
func (s Step) RunsIn(environment string) bool {
	if len(s.OnlyEnvironments) == 0 {
		return true
	}
	for _, e := range s.OnlyEnvironments {
		if e == environment {
			return true
		}
	}
	return false
}

// DisplayName returns the title, or the name when there is none.
func (s Step) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Name
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
