package execution

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/domain/check"
)

// Status is the final state of a step in a run.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StepResult captures the outcome of one step.
type StepResult struct {
	name           string
	status         Status
	err            error
	duration       time.Duration
	exitCode       int
	output         string
	recoveryDetail string
	skipReason     string
	checkResult    *check.Result
	dryRun         bool
	allowedFailure bool
}

// NewStepResult creates a StepResult.
func NewStepResult(name string, status Status, err error) StepResult {
	return StepResult{name: name, status: status, err: err}
}

// NewSkippedResult creates the result of a step that did not run.
func NewSkippedResult(name, reason string) StepResult {
	return StepResult{name: name, status: StatusSkipped, skipReason: reason}
}

func (r StepResult) Name() string               { return r.name }
func (r StepResult) Status() Status             { return r.status }
func (r StepResult) Error() error               { return r.err }
func (r StepResult) Duration() time.Duration    { return r.duration }
func (r StepResult) ExitCode() int              { return r.exitCode }
func (r StepResult) Output() string             { return r.output }
func (r StepResult) RecoveryDetail() string     { return r.recoveryDetail }
func (r StepResult) SkipReason() string         { return r.skipReason }
func (r StepResult) CheckResult() *check.Result { return r.checkResult }
func (r StepResult) DryRun() bool               { return r.dryRun }
func (r StepResult) AllowedFailure() bool       { return r.allowedFailure }
func (r StepResult) Success() bool              { return r.status == StatusSucceeded }
func (r StepResult) Skipped() bool              { return r.status == StatusSkipped }
func (r StepResult) Failed() bool               { return r.status == StatusFailed }

// Acceptable reports whether the step leaves the run successful.
func (r StepResult) Acceptable() bool {
	return r.status != StatusFailed || r.allowedFailure
}

// WithDuration returns a copy with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithExitCode returns a copy with the command's exit code.
func (r StepResult) WithExitCode(code int) StepResult {
	r.exitCode = code
	return r
}

// WithOutput returns a copy with captured output.
func (r StepResult) WithOutput(output string) StepResult {
	r.output = output
	return r
}

// WithRecoveryDetail returns a copy noting how a retried step recovered.
func (r StepResult) WithRecoveryDetail(detail string) StepResult {
	r.recoveryDetail = detail
	return r
}

// WithCheckResult returns a copy carrying the completion check outcome.
func (r StepResult) WithCheckResult(res check.Result) StepResult {
	r.checkResult = &res
	return r
}

// WithDryRun returns a copy marked as simulated.
func (r StepResult) WithDryRun() StepResult {
	r.dryRun = true
	return r
}

// WithAllowedFailure returns a copy whose failure does not fail the run.
func (r StepResult) WithAllowedFailure() StepResult {
	r.allowedFailure = true
	return r
}
