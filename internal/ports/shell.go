package ports

import (
	"context"
	"time"
)

// ShellOptions controls how a shell command is spawned.
type ShellOptions struct {
	// Dir is the working directory. The runner always passes the project root.
	Dir string
	// Env is merged over the inherited process environment.
	Env map[string]string
	// SearchPath, when non-empty, replaces PATH in the child environment.
	// It is the only place the effective search path reaches the OS.
	SearchPath []string
}

// ShellResult is the outcome of a finished command.
type ShellResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Success reports whether the command exited with status 0.
func (r ShellResult) Success() bool {
	return r.ExitCode == 0
}

// Stream identifies which pipe an output line came from.
type Stream int

const (
	// Stdout is the child's standard output.
	Stdout Stream = iota
	// Stderr is the child's standard error.
	Stderr
)

// OutputLine is one line of streamed command output.
type OutputLine struct {
	Stream Stream
	Text   string
}

// ShellRunner executes command strings through the platform shell.
// A non-zero exit is reported through ShellResult, not as an error; an
// error means the command could not be started or its output not read.
type ShellRunner interface {
	Execute(ctx context.Context, command string, opts ShellOptions) (ShellResult, error)
	ExecuteStreaming(ctx context.Context, command string, opts ShellOptions, onLine func(OutputLine)) (ShellResult, error)
}

// ShellCall records one invocation, used by test doubles.
type ShellCall struct {
	Command string
	Options ShellOptions
}
