// Package environment decides which named environment a run targets.
package environment

import (
	"fmt"
	"os"
	"sort"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/platform"
)

// Built-in environment names.
const (
	Development = "development"
	CI          = "ci"
	Codespace   = "codespace"
	Docker      = "docker"
)

// Source records how an environment was chosen.
type Source int

const (
	SourceFlag Source = iota
	SourceConfig
	SourceDetected
	SourceDefault
)

func (s Source) String() string {
	switch s {
	case SourceFlag:
		return "--env flag"
	case SourceConfig:
		return "default_environment"
	case SourceDetected:
		return "detected"
	case SourceDefault:
		return "default"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// ciVariables mark a CI runner when set. TF_BUILD is handled separately.
var ciVariables = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "JENKINS_URL", "BUILDKITE", "TRAVIS"}

// Resolved is the environment a run uses.
type Resolved struct {
	Name   string
	Source Source
	Config config.EnvironmentConfig
}

// Provided returns the requirements the environment supplies itself.
func (r Resolved) Provided() map[string]bool {
	provided := make(map[string]bool, len(r.Config.ProvidedRequirements))
	for _, name := range r.Config.ProvidedRequirements {
		provided[name] = true
	}
	return provided
}

// DefaultWorkflow returns the workflow to run when none is named.
func (r Resolved) DefaultWorkflow() string {
	if r.Config.DefaultWorkflow != "" {
		return r.Config.DefaultWorkflow
	}
	return config.DefaultWorkflow
}

func (r Resolved) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.Source)
}

// Resolver picks the active environment.
type Resolver struct {
	settings config.Settings
	lookup   func(string) (string, bool)
	platform *platform.Platform
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(r *Resolver) { r.lookup = lookup }
}

// WithPlatform sets the host used for container detection.
func WithPlatform(p *platform.Platform) Option {
	return func(r *Resolver) { r.platform = p }
}

// NewResolver creates a Resolver for the project settings.
func NewResolver(settings config.Settings, opts ...Option) *Resolver {
	r := &Resolver{settings: settings, lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(r)
	}
	if r.platform == nil {
		r.platform = platform.Detect()
	}
	return r
}

// Resolve returns the environment named by flag, else the configured
// default, else the detected one, else development.
func (r *Resolver) Resolve(flag string) Resolved {
	switch {
	case flag != "":
		return r.resolved(flag, SourceFlag)
	case r.settings.DefaultEnvironment != "":
		return r.resolved(r.settings.DefaultEnvironment, SourceConfig)
	}
	if name, ok := r.Detect(); ok {
		return r.resolved(name, SourceDetected)
	}
	return r.resolved(Development, SourceDefault)
}

// Detect inspects the process environment. Custom rules are tried first,
// in environment name order.
func (r *Resolver) Detect() (string, bool) {
	names := make([]string, 0, len(r.settings.Environments))
	for name := range r.settings.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, rule := range r.settings.Environments[name].Detect {
			if r.matches(rule) {
				return name, true
			}
		}
	}

	for _, key := range ciVariables {
		if _, ok := r.lookup(key); ok {
			return CI, true
		}
	}
	if v, ok := r.lookup("TF_BUILD"); ok && v == "True" {
		return CI, true
	}
	for _, key := range []string{"CODESPACES", "GITPOD_WORKSPACE_ID"} {
		if _, ok := r.lookup(key); ok {
			return Codespace, true
		}
	}
	if r.platform.InContainer() {
		return Docker, true
	}
	return "", false
}

// Known lists built-in and configured environment names, sorted.
func (r *Resolver) Known() []string {
	set := map[string]bool{Development: true, CI: true, Codespace: true, Docker: true}
	for name := range r.settings.Environments {
		set[name] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Resolver) matches(rule config.DetectRule) bool {
	if rule.Env == "" {
		return false
	}
	v, ok := r.lookup(rule.Env)
	if !ok {
		return false
	}
	return rule.Value == "" || v == rule.Value
}

func (r *Resolver) resolved(name string, source Source) Resolved {
	return Resolved{Name: name, Source: source, Config: r.settings.Environments[name]}
}
