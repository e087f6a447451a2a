package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for configuration problems.
const (
	ErrCodeConfigNotFound    = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse       = "CONFIG_PARSE"
	ErrCodeUnknownWorkflow   = "UNKNOWN_WORKFLOW"
	ErrCodeUnknownStep       = "UNKNOWN_STEP"
	ErrCodeUnknownDependency = "UNKNOWN_DEPENDENCY"
	ErrCodeCircularReference = "CIRCULAR_DEPENDENCY"
	ErrCodeInvalidCheck      = "INVALID_CHECK"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
)

// ErrConfigNotFound is wrapped by the not-found UserError.
var ErrConfigNotFound = errors.New("configuration not found")

// UserError is a configuration error with an actionable suggestion.
type UserError struct {
	Code       string
	Message    string
	Context    string // file, step or field the error is about
	Suggestion string
	Underlying error
}

func (e *UserError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
	}
	return e.Message
}

func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is matches another *UserError with the same code.
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	return ok && t.Code == e.Code
}

// WithContext returns a copy with the context replaced.
func (e *UserError) WithContext(ctx string) *UserError {
	clone := *e
	clone.Context = ctx
	return &clone
}

// WithSuggestion returns a copy with the suggestion replaced.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	clone := *e
	clone.Suggestion = suggestion
	return &clone
}

// ErrorList collects every validation failure so they surface together.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList returns an empty list.
func NewErrorList() *ErrorList {
	return &ErrorList{}
}

// Add appends err unless it is nil.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// HasErrors reports whether anything was added.
func (l *ErrorList) HasErrors() bool { return len(l.errors) > 0 }

// Len returns the number of errors.
func (l *ErrorList) Len() int { return len(l.errors) }

// Errors returns a copy of the collected errors.
func (l *ErrorList) Errors() []*UserError {
	return append([]*UserError(nil), l.errors...)
}

func (l *ErrorList) Error() string {
	switch len(l.errors) {
	case 0:
		return ""
	case 1:
		return l.errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d configuration errors:", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, err.Error())
	}
	return b.String()
}

// Unwrap lets errors.Is and errors.As see every collected error.
func (l *ErrorList) Unwrap() []error {
	out := make([]error, len(l.errors))
	for i, err := range l.errors {
		out[i] = err
	}
	return out
}

// AsError returns nil for an empty list.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// IsUserError reports whether err carries a UserError with code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	for _, candidate := range flatten(err) {
		if errors.As(candidate, &ue) && ue.Code == code {
			return true
		}
	}
	return false
}

func flatten(err error) []error {
	var list *ErrorList
	if errors.As(err, &list) {
		return list.Unwrap()
	}
	return []error{err}
}

// NewConfigNotFoundError reports that no configuration file exists.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    "no bivvy configuration found",
		Context:    path,
		Suggestion: "Create .bivvy/config.yml in the project root or pass --config.",
		Underlying: ErrConfigNotFound,
	}
}

// NewConfigParseError wraps a YAML or TOML decoding failure.
func NewConfigParseError(path string, err error) *UserError {
	format := "YAML"
	if strings.HasSuffix(path, ".toml") {
		format = "TOML"
	}
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    fmt.Sprintf("failed to parse configuration: %v", err),
		Context:    path,
		Suggestion: fmt.Sprintf("Check the %s syntax of the file.", format),
		Underlying: err,
	}
}

// NewUnknownWorkflowError reports a workflow name that is not defined.
func NewUnknownWorkflowError(name string, available []string) *UserError {
	suggestion := "Define it under 'workflows'."
	if len(available) > 0 {
		suggestion = "Available workflows: " + strings.Join(available, ", ")
	}
	return &UserError{
		Code:       ErrCodeUnknownWorkflow,
		Message:    fmt.Sprintf("unknown workflow %q", name),
		Suggestion: suggestion,
	}
}

// NewUnknownStepError reports a reference to an undefined step.
func NewUnknownStepError(context, step string) *UserError {
	return &UserError{
		Code:       ErrCodeUnknownStep,
		Message:    fmt.Sprintf("references unknown step %q", step),
		Context:    context,
		Suggestion: "Define the step under 'steps' or fix the spelling.",
	}
}

// NewCircularDependencyError reports a dependency cycle found during validation.
func NewCircularDependencyError(cycle []string) *UserError {
	return &UserError{
		Code:       ErrCodeCircularReference,
		Message:    "circular dependency: " + strings.Join(cycle, " -> "),
		Suggestion: "Remove one of the depends_on entries to break the cycle.",
	}
}
