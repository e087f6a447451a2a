package execution

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for step execution.
const (
	ErrCodeEmptyCommand       = "EMPTY_COMMAND"
	ErrCodeHookFailed         = "HOOK_FAILED"
	ErrCodeUnresolvedVariable = "UNRESOLVED_VARIABLE"
	ErrCodeCommandFailed      = "COMMAND_FAILED"
	ErrCodeEnvFile            = "ENV_FILE"
	ErrCodeStartFailed        = "START_FAILED"
)

// ErrStepFailed is matched by every StepError.
var ErrStepFailed = errors.New("step failed")

// StepError is a step execution failure with an optional remedy.
type StepError struct {
	Code       string // Error code for categorization
	Message    string // User-facing message
	Step       string // Step name
	Suggestion string // Actionable suggestion
	Underlying error  // Wrapped cause
}

// NewStepError creates a StepError.
func NewStepError(code, message string) *StepError {
	return &StepError{Code: code, Message: message}
}

func (e *StepError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("step %q: %s", e.Step, e.Message)
	}
	return e.Message
}

// Unwrap returns the cause.
func (e *StepError) Unwrap() error {
	return e.Underlying
}

// Is matches ErrStepFailed regardless of the cause.
func (e *StepError) Is(target error) bool {
	return target == ErrStepFailed
}

// Format returns the message with code, step and suggestion on separate lines.
func (e *StepError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Step != "" {
		fmt.Fprintf(&b, "\n  Step: %s", e.Step)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %s", e.Underlying)
	}
	return b.String()
}

// WithStep returns a copy naming the step.
func (e *StepError) WithStep(step string) *StepError {
	c := *e
	c.Step = step
	return &c
}

// WithSuggestion returns a copy with a suggestion.
func (e *StepError) WithSuggestion(suggestion string) *StepError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a copy wrapping err.
func (e *StepError) WithUnderlying(err error) *StepError {
	c := *e
	c.Underlying = err
	return &c
}

func newEmptyCommandError(step string) *StepError {
	return NewStepError(ErrCodeEmptyCommand, "step has no command to execute").
		WithStep(step).
		WithSuggestion("Add a 'command' to the step or remove it from the workflow")
}

func newHookError(step, hook, stderr string) *StepError {
	return NewStepError(ErrCodeHookFailed, fmt.Sprintf("hook '%s' failed: %s", hook, strings.TrimSpace(stderr))).
		WithStep(step)
}

func newUnresolvedError(step string, err error) *StepError {
	return NewStepError(ErrCodeUnresolvedVariable, err.Error()).
		WithStep(step).
		WithUnderlying(err).
		WithSuggestion("Define the variable in settings.env, the workflow env or the step env")
}

func newCommandFailedError(step string, exitCode int) *StepError {
	return NewStepError(ErrCodeCommandFailed, fmt.Sprintf("Command failed with exit code %d", exitCode)).
		WithStep(step)
}
