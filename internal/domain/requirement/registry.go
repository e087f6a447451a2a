// Package requirement decides whether the system prerequisites of a step
// are usable from the current shell, and remediates the ones that are not.
//
// A Registry names the requirements. A Checker classifies each one into a
// Status and caches the answer for the rest of the run. HandleGaps walks
// the unsatisfied statuses and activates, starts or installs what it can.
package requirement

import (
	"sort"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/platform"
)

// CheckKind selects how a Check is evaluated.
type CheckKind int

const (
	// CheckCommandSucceeds is satisfied by a zero exit status.
	CheckCommandSucceeds CheckKind = iota
	// CheckFileExists is satisfied when the path exists.
	CheckFileExists
	// CheckServiceReachable reports ServiceDown when the command fails.
	CheckServiceReachable
	// CheckManagedCommand classifies where a runtime binary comes from.
	CheckManagedCommand
	// CheckAny tries nested checks in order.
	CheckAny
)

// ManagedCommand describes a runtime that should come from a version manager.
type ManagedCommand struct {
	Tool string
	// ManagedPatterns are path substrings that identify a managed install.
	ManagedPatterns []string
	// SystemPatterns are path substrings that identify a system install.
	SystemPatterns []string
	// VersionFile is a project file that pins the runtime version.
	VersionFile string
	// VersionTool is the tool name used in .tool-versions and mise.toml.
	VersionTool string
}

// Check is one way of evaluating a requirement.
type Check struct {
	Kind         CheckKind
	Command      string
	Path         string
	StartCommand string
	Managed      *ManagedCommand
	Any          []Check
}

// InstallContext is what dynamic install dependencies may look at.
type InstallContext struct {
	Platform *platform.Platform
	// Detected reports whether a manager is installed, active or not.
	Detected func(manager string) bool
}

// Requirement is a named, checkable system prerequisite.
type Requirement struct {
	Name   string
	Checks []Check

	// InstallTemplate names the automatic install recipe; empty means the
	// requirement can only be installed by hand.
	InstallTemplate string
	InstallHint     string
	// InstallCommand is what runs to install. When empty the hint is run.
	InstallCommand string
	// InstallCommands override InstallCommand when the named manager is
	// part of the resolved install chain.
	InstallCommands map[string]string

	// DependsOn are requirements that must be installed first.
	DependsOn []string
	// InstallRequires adds dependencies decided at install time.
	InstallRequires func(InstallContext) []string
}

// installCommandFor picks the command to run given the resolved chain.
func (r Requirement) installCommandFor(chain []string) string {
	for i := len(chain) - 1; i >= 0; i-- {
		if cmd, ok := r.InstallCommands[chain[i]]; ok {
			return cmd
		}
	}
	if r.InstallCommand != "" {
		return r.InstallCommand
	}
	return r.InstallHint
}

// Registry maps names to requirements.
type Registry struct {
	requirements map[string]Requirement
}

// NewRegistry returns a registry seeded with the built-in requirements for plat.
func NewRegistry(plat *platform.Platform) *Registry {
	r := &Registry{requirements: make(map[string]Requirement)}
	for _, req := range builtins(plat) {
		r.Register(req)
	}
	return r
}

// NewEmptyRegistry returns a registry without built-ins.
func NewEmptyRegistry() *Registry {
	return &Registry{requirements: make(map[string]Requirement)}
}

// Register adds req, replacing any requirement with the same name.
func (r *Registry) Register(req Requirement) {
	r.requirements[req.Name] = req
}

// RegisterCustom adds project-defined requirements. They replace
// built-ins of the same name.
func (r *Registry) RegisterCustom(custom map[string]config.RequirementConfig) {
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.Register(FromConfig(name, custom[name]))
	}
}

// Get returns the named requirement.
func (r *Registry) Get(name string) (Requirement, bool) {
	req, ok := r.requirements[name]
	return req, ok
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.requirements))
	for name := range r.requirements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromConfig converts a configured requirement.
func FromConfig(name string, rc config.RequirementConfig) Requirement {
	var chk Check
	switch rc.Check.Type {
	case config.RequirementFileExists:
		chk = Check{Kind: CheckFileExists, Path: rc.Check.Path}
	case config.RequirementServiceReachable:
		chk = Check{Kind: CheckServiceReachable, Command: rc.Check.Command, StartCommand: rc.StartCommand}
	default:
		chk = Check{Kind: CheckCommandSucceeds, Command: rc.Check.Command}
	}
	return Requirement{
		Name:            name,
		Checks:          []Check{chk},
		InstallTemplate: rc.InstallTemplate,
		InstallHint:     rc.InstallHint,
		InstallCommand:  rc.InstallCommand,
		DependsOn:       rc.DependsOn,
	}
}
