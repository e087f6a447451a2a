package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/bivvy/internal/domain/config"
	"github.com/felixgeelhaar/bivvy/internal/domain/interpolate"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// RunContext is what every step of a run shares.
type RunContext struct {
	// Vars are the built-in variables.
	Vars *interpolate.Context
	// Env is the project and workflow environment, before step layers.
	Env map[string]string
	// SearchPath replaces PATH for commands when non-empty.
	SearchPath []string
}

// OutputFunc receives streamed command output.
type OutputFunc func(step string, line ports.OutputLine)

// Executor runs a single resolved step: before hooks, the command with
// retries, then after hooks.
type Executor struct {
	shell  ports.ShellRunner
	root   string
	dryRun bool
	output OutputFunc
	logger ports.Logger
}

// NewExecutor creates an Executor that runs commands in root.
func NewExecutor(shell ports.ShellRunner, root string) *Executor {
	return &Executor{shell: shell, root: root}
}

// WithDryRun returns an Executor that reports commands without running them.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	c := *e
	c.dryRun = dryRun
	return &c
}

// WithOutput returns an Executor that streams output lines to fn.
func (e *Executor) WithOutput(fn OutputFunc) *Executor {
	c := *e
	c.output = fn
	return &c
}

// WithLogger returns an Executor that logs attempts to logger.
func (e *Executor) WithLogger(logger ports.Logger) *Executor {
	c := *e
	c.logger = logger
	return &c
}

// Execute runs step. Failures are reported in the result, never as a panic
// or a separate error.
func (e *Executor) Execute(ctx context.Context, step Step, rc RunContext) StepResult {
	start := time.Now()
	result := e.execute(ctx, step, rc)
	return result.WithDuration(time.Since(start))
}

func (e *Executor) execute(ctx context.Context, step Step, rc RunContext) StepResult {
	if strings.TrimSpace(step.Command) == "" {
		return NewStepResult(step.Name, StatusFailed, newEmptyCommandError(step.Name))
	}

	env, err := e.environment(step, rc)
	if err != nil {
		return NewStepResult(step.Name, StatusFailed, err)
	}
	lookup := chain(mapLookup(env), vars(rc.Vars))

	command, err := interpolate.Resolve(step.Command, lookup)
	if err != nil {
		return NewStepResult(step.Name, StatusFailed, newUnresolvedError(step.Name, err))
	}

	if e.dryRun {
		return NewStepResult(step.Name, StatusSucceeded, nil).WithDryRun().WithOutput(command)
	}

	opts := ports.ShellOptions{Dir: e.root, Env: env, SearchPath: rc.SearchPath}

	if err := e.runHooks(ctx, step.Name, step.Before, lookup, opts); err != nil {
		return NewStepResult(step.Name, StatusFailed, err)
	}

	attempts := step.Retry + 1
	var res ports.ShellResult
	attempt := 1
	for ; attempt <= attempts; attempt++ {
		e.log(ctx, "running step command", ports.F("step", step.Name), ports.F("attempt", attempt))
		res, err = e.run(ctx, step.Name, command, opts)
		if err != nil {
			return NewStepResult(step.Name, StatusFailed,
				NewStepError(ErrCodeStartFailed, "command could not be started").WithStep(step.Name).WithUnderlying(err))
		}
		if res.Success() || ctx.Err() != nil {
			break
		}
	}
	if attempt > attempts {
		attempt = attempts
	}

	if !res.Success() {
		return NewStepResult(step.Name, StatusFailed, newCommandFailedError(step.Name, res.ExitCode)).
			WithExitCode(res.ExitCode).
			WithOutput(joinOutput(res))
	}

	result := NewStepResult(step.Name, StatusSucceeded, nil).WithOutput(res.Stdout)
	if attempt > 1 {
		result = result.WithRecoveryDetail(fmt.Sprintf("succeeded on attempt %d", attempt))
	}

	if err := e.runHooks(ctx, step.Name, step.After, lookup, opts); err != nil {
		return NewStepResult(step.Name, StatusFailed, err).WithOutput(res.Stdout)
	}
	return result
}

// environment merges the shared env with the step's env file and env map,
// later layers winning, and interpolates every value.
func (e *Executor) environment(step Step, rc RunContext) (map[string]string, error) {
	fileEnv, err := config.LoadEnvFile(e.root, step.EnvFile)
	if err != nil {
		return nil, NewStepError(ErrCodeEnvFile, "failed to load env_file").WithStep(step.Name).WithUnderlying(err)
	}
	merged := config.MergeEnv(rc.Env, fileEnv, step.Env)

	resolved, err := interpolate.ResolveMap(merged, chain(vars(rc.Vars), mapLookup(merged)))
	if err != nil {
		return nil, newUnresolvedError(step.Name, err)
	}
	return resolved, nil
}

func (e *Executor) runHooks(ctx context.Context, step string, hooks []string, lookup interpolate.Lookup, opts ports.ShellOptions) error {
	for _, hook := range hooks {
		command, err := interpolate.Resolve(hook, lookup)
		if err != nil {
			return newUnresolvedError(step, err)
		}
		res, err := e.run(ctx, step, command, opts)
		if err != nil {
			return newHookError(step, command, err.Error())
		}
		if !res.Success() {
			return newHookError(step, command, res.Stderr)
		}
	}
	return nil
}

func (e *Executor) run(ctx context.Context, step, command string, opts ports.ShellOptions) (ports.ShellResult, error) {
	if e.output == nil {
		return e.shell.Execute(ctx, command, opts)
	}
	return e.shell.ExecuteStreaming(ctx, command, opts, func(line ports.OutputLine) {
		e.output(step, line)
	})
}

func (e *Executor) log(ctx context.Context, msg string, fields ...ports.Field) {
	if e.logger != nil {
		e.logger.Debug(ctx, msg, fields...)
	}
}

func joinOutput(res ports.ShellResult) string {
	switch {
	case res.Stdout == "":
		return res.Stderr
	case res.Stderr == "":
		return res.Stdout
	default:
		return strings.TrimRight(res.Stdout, "\n") + "\n" + res.Stderr
	}
}

func mapLookup(m map[string]string) interpolate.Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func vars(c *interpolate.Context) interpolate.Lookup {
	if c == nil {
		return func(string) (string, bool) { return "", false }
	}
	return c.Lookup
}

func chain(lookups ...interpolate.Lookup) interpolate.Lookup {
	return func(name string) (string, bool) {
		for _, l := range lookups {
			if v, ok := l(name); ok {
				return v, true
			}
		}
		return "", false
	}
}
