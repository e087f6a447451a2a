package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched with errors.Is.
var (
	ErrUnknownDependency  = errors.New("unknown dependency")
	ErrCircularDependency = errors.New("circular dependency")
	ErrDuplicateStep      = errors.New("duplicate step")
)

// Error codes carried by DependencyError.
const (
	CodeUnknownDependency  = "UNKNOWN_DEPENDENCY"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
	CodeDuplicateStep      = "DUPLICATE_STEP"
)

// DependencyError describes a defect in the step graph.
type DependencyError struct {
	Code       string
	Message    string
	Step       string
	Steps      []string // unresolved remainder or cycle path
	Suggestion string
	kind       error
}

func (e *DependencyError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("step %q: %s", e.Step, e.Message)
	}
	return e.Message
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *DependencyError) Unwrap() error {
	return e.kind
}

// WithSuggestion returns a copy with the suggestion replaced.
func (e *DependencyError) WithSuggestion(suggestion string) *DependencyError {
	clone := *e
	clone.Steps = append([]string(nil), e.Steps...)
	clone.Suggestion = suggestion
	return &clone
}

func newUnknownDependencyError(step, dependency string) *DependencyError {
	return &DependencyError{
		Code:       CodeUnknownDependency,
		Message:    fmt.Sprintf("depends on unknown step %q", dependency),
		Step:       step,
		Steps:      []string{dependency},
		Suggestion: "Define the step under 'steps' or remove it from depends_on.",
		kind:       ErrUnknownDependency,
	}
}

func newCircularDependencyError(remaining []string) *DependencyError {
	return &DependencyError{
		Code:       CodeCircularDependency,
		Message:    "circular dependency detected: " + strings.Join(remaining, " -> "),
		Steps:      remaining,
		Suggestion: "Break the chain by removing one of the depends_on entries.",
		kind:       ErrCircularDependency,
	}
}

func newDuplicateStepError(step string) *DependencyError {
	return &DependencyError{
		Code:    CodeDuplicateStep,
		Message: "listed more than once",
		Step:    step,
		kind:    ErrDuplicateStep,
	}
}
