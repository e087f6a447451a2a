// Package config defines the project configuration schema and loads it
// from YAML or TOML.
package config

import "sort"

// Completion check types.
const (
	CheckFileExists      = "file_exists"
	CheckCommandSucceeds = "command_succeeds"
	CheckMarker          = "marker"
	CheckAll             = "all"
	CheckAny             = "any"
)

// Requirement check types accepted for custom requirements.
const (
	RequirementCommandSucceeds  = "command_succeeds"
	RequirementFileExists       = "file_exists"
	RequirementServiceReachable = "service_reachable"
)

// Config is a whole project configuration.
type Config struct {
	AppName      string                       `yaml:"app_name,omitempty" toml:"app_name,omitempty"`
	Settings     Settings                     `yaml:"settings,omitempty" toml:"settings,omitempty"`
	Steps        map[string]StepConfig        `yaml:"steps,omitempty" toml:"steps,omitempty"`
	Workflows    map[string]WorkflowConfig    `yaml:"workflows,omitempty" toml:"workflows,omitempty"`
	Requirements map[string]RequirementConfig `yaml:"requirements,omitempty" toml:"requirements,omitempty"`
}

// Settings are project-wide options.
type Settings struct {
	Env                map[string]string            `yaml:"env,omitempty" toml:"env,omitempty"`
	EnvFile            string                       `yaml:"env_file,omitempty" toml:"env_file,omitempty"`
	DefaultEnvironment string                       `yaml:"default_environment,omitempty" toml:"default_environment,omitempty"`
	NonInteractive     bool                         `yaml:"non_interactive,omitempty" toml:"non_interactive,omitempty"`
	Environments       map[string]EnvironmentConfig `yaml:"environments,omitempty" toml:"environments,omitempty"`
	// HistoryRetention caps the runs kept in the history file. Zero means 50.
	HistoryRetention int `yaml:"history_retention,omitempty" toml:"history_retention,omitempty"`
}

// EnvironmentConfig customizes one named environment.
type EnvironmentConfig struct {
	Detect               []DetectRule `yaml:"detect,omitempty" toml:"detect,omitempty"`
	DefaultWorkflow      string       `yaml:"default_workflow,omitempty" toml:"default_workflow,omitempty"`
	ProvidedRequirements []string     `yaml:"provided_requirements,omitempty" toml:"provided_requirements,omitempty"`
}

// DetectRule matches when Env is set, and equals Value when Value is given.
type DetectRule struct {
	Env   string `yaml:"env" toml:"env"`
	Value string `yaml:"value,omitempty" toml:"value,omitempty"`
}

// CompletedCheck is a step's "already done" predicate. All and Any nest
// further checks.
type CompletedCheck struct {
	Type    string           `yaml:"type" toml:"type"`
	Path    string           `yaml:"path,omitempty" toml:"path,omitempty"`
	Command string           `yaml:"command,omitempty" toml:"command,omitempty"`
	Checks  []CompletedCheck `yaml:"checks,omitempty" toml:"checks,omitempty"`
}

// FileExists builds a file_exists check.
func FileExists(path string) CompletedCheck {
	return CompletedCheck{Type: CheckFileExists, Path: path}
}

// CommandSucceeds builds a command_succeeds check.
func CommandSucceeds(command string) CompletedCheck {
	return CompletedCheck{Type: CheckCommandSucceeds, Command: command}
}

// AllOf builds an all check.
func AllOf(checks ...CompletedCheck) CompletedCheck {
	return CompletedCheck{Type: CheckAll, Checks: checks}
}

// AnyOf builds an any check.
func AnyOf(checks ...CompletedCheck) CompletedCheck {
	return CompletedCheck{Type: CheckAny, Checks: checks}
}

// StepConfig is a step as written in the configuration.
type StepConfig struct {
	Title            string                     `yaml:"title,omitempty" toml:"title,omitempty"`
	Description      string                     `yaml:"description,omitempty" toml:"description,omitempty"`
	Command          string                     `yaml:"command,omitempty" toml:"command,omitempty"`
	DependsOn        []string                   `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	CompletedCheck   *CompletedCheck            `yaml:"completed_check,omitempty" toml:"completed_check,omitempty"`
	Skippable        *bool                      `yaml:"skippable,omitempty" toml:"skippable,omitempty"`
	Required         bool                       `yaml:"required,omitempty" toml:"required,omitempty"`
	PromptIfComplete *bool                      `yaml:"prompt_if_complete,omitempty" toml:"prompt_if_complete,omitempty"`
	AllowFailure     bool                       `yaml:"allow_failure,omitempty" toml:"allow_failure,omitempty"`
	Retry            int                        `yaml:"retry,omitempty" toml:"retry,omitempty"`
	Env              map[string]string          `yaml:"env,omitempty" toml:"env,omitempty"`
	EnvFile          string                     `yaml:"env_file,omitempty" toml:"env_file,omitempty"`
	Before           []string                   `yaml:"before,omitempty" toml:"before,omitempty"`
	After            []string                   `yaml:"after,omitempty" toml:"after,omitempty"`
	Sensitive        bool                       `yaml:"sensitive,omitempty" toml:"sensitive,omitempty"`
	Requires         []string                   `yaml:"requires,omitempty" toml:"requires,omitempty"`
	OnlyEnvironments []string                   `yaml:"only_environments,omitempty" toml:"only_environments,omitempty"`
	Environments     map[string]StepEnvOverride `yaml:"environments,omitempty" toml:"environments,omitempty"`
}

// StepEnvOverride replaces step fields when a named environment is
// active. Nil fields leave the base value alone; a nil Env value removes
// that variable.
type StepEnvOverride struct {
	Title          *string            `yaml:"title,omitempty" toml:"title,omitempty"`
	Description    *string            `yaml:"description,omitempty" toml:"description,omitempty"`
	Command        *string            `yaml:"command,omitempty" toml:"command,omitempty"`
	DependsOn      []string           `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
	CompletedCheck *CompletedCheck    `yaml:"completed_check,omitempty" toml:"completed_check,omitempty"`
	Skippable      *bool              `yaml:"skippable,omitempty" toml:"skippable,omitempty"`
	Required       *bool              `yaml:"required,omitempty" toml:"required,omitempty"`
	AllowFailure   *bool              `yaml:"allow_failure,omitempty" toml:"allow_failure,omitempty"`
	Retry          *int               `yaml:"retry,omitempty" toml:"retry,omitempty"`
	Sensitive      *bool              `yaml:"sensitive,omitempty" toml:"sensitive,omitempty"`
	Env            map[string]*string `yaml:"env,omitempty" toml:"env,omitempty"`
	Before         []string           `yaml:"before,omitempty" toml:"before,omitempty"`
	After          []string           `yaml:"after,omitempty" toml:"after,omitempty"`
	Requires       []string           `yaml:"requires,omitempty" toml:"requires,omitempty"`
}

// IsSkippable defaults to true.
func (s StepConfig) IsSkippable() bool {
	return s.Skippable == nil || *s.Skippable
}

// ShouldPromptIfComplete defaults to true.
func (s StepConfig) ShouldPromptIfComplete() bool {
	return s.PromptIfComplete == nil || *s.PromptIfComplete
}

// WorkflowConfig names the steps a workflow runs.
type WorkflowConfig struct {
	Description string                  `yaml:"description,omitempty" toml:"description,omitempty"`
	Steps       []string                `yaml:"steps" toml:"steps"`
	Overrides   map[string]StepOverride `yaml:"overrides,omitempty" toml:"overrides,omitempty"`
	Settings    WorkflowSettings        `yaml:"settings,omitempty" toml:"settings,omitempty"`
	Env         map[string]string       `yaml:"env,omitempty" toml:"env,omitempty"`
	EnvFile     string                  `yaml:"env_file,omitempty" toml:"env_file,omitempty"`
}

// StepOverride adjusts a step's prompting within one workflow.
type StepOverride struct {
	SkipPrompt       bool  `yaml:"skip_prompt,omitempty" toml:"skip_prompt,omitempty"`
	Required         *bool `yaml:"required,omitempty" toml:"required,omitempty"`
	PromptIfComplete *bool `yaml:"prompt_if_complete,omitempty" toml:"prompt_if_complete,omitempty"`
}

// WorkflowSettings are per-workflow switches.
type WorkflowSettings struct {
	NonInteractive bool `yaml:"non_interactive,omitempty" toml:"non_interactive,omitempty"`
}

// RequirementConfig defines or overrides a requirement.
type RequirementConfig struct {
	Check           RequirementCheck `yaml:"check" toml:"check"`
	InstallTemplate string           `yaml:"install_template,omitempty" toml:"install_template,omitempty"`
	InstallHint     string           `yaml:"install_hint,omitempty" toml:"install_hint,omitempty"`
	InstallCommand  string           `yaml:"install_command,omitempty" toml:"install_command,omitempty"`
	StartCommand    string           `yaml:"start_command,omitempty" toml:"start_command,omitempty"`
	DependsOn       []string         `yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
}

// RequirementCheck is the single check of a custom requirement.
type RequirementCheck struct {
	Type    string `yaml:"type" toml:"type"`
	Command string `yaml:"command,omitempty" toml:"command,omitempty"`
	Path    string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// WorkflowNames returns the defined workflows, sorted.
func (c *Config) WorkflowNames() []string {
	return sortedKeys(c.Workflows)
}

// StepNames returns the defined steps, sorted.
func (c *Config) StepNames() []string {
	return sortedKeys(c.Steps)
}

// DefaultWorkflow is run when no workflow is named.
const DefaultWorkflow = "default"

// Workflow returns the named workflow or an UNKNOWN_WORKFLOW error. An
// undefined "default" workflow runs every step.
func (c *Config) Workflow(name string) (WorkflowConfig, error) {
	wf, ok := c.Workflows[name]
	if ok {
		return wf, nil
	}
	if name == DefaultWorkflow && len(c.Steps) > 0 {
		return WorkflowConfig{Steps: c.StepNames()}, nil
	}
	return WorkflowConfig{}, NewUnknownWorkflowError(name, c.WorkflowNames())
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
